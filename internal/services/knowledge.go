package services

import (
	"fmt"
	"sort"
	"strings"
)

type diseaseCard struct {
	name          string
	description   string
	symptoms      []string
	prevention    []string
	indianContext string
	riskFactors   []string
}

// KnowledgeService answers health education, prevention and facility
// lookup queries from static tables.
type KnowledgeService struct {
	diseases   map[string]diseaseCard
	facilities map[string][]string
}

// NewKnowledgeService builds the service with its disease and facility tables.
func NewKnowledgeService() *KnowledgeService {
	return &KnowledgeService{
		diseases: map[string]diseaseCard{
			"diabetes": {
				name:        "Diabetes Mellitus",
				description: "A group of metabolic disorders characterized by high blood sugar levels.",
				symptoms: []string{
					"Increased thirst", "Frequent urination", "Unexplained weight loss",
					"Fatigue", "Blurred vision",
				},
				prevention: []string{
					"Maintain healthy weight",
					"Regular physical activity",
					"Balanced diet with low sugar and refined carbs",
					"Regular health checkups",
					"Avoid smoking and excessive alcohol",
				},
				indianContext: "India has over 77 million diabetics. Include millets, bitter gourd, and fenugreek in diet.",
				riskFactors: []string{
					"Family history", "Obesity", "Sedentary lifestyle", "Age >45", "PCOS in women",
				},
			},
			"hypertension": {
				name:        "High Blood Pressure",
				description: "A condition where blood pressure in arteries is persistently elevated.",
				symptoms: []string{
					"Headaches", "Shortness of breath", "Nosebleeds", "Chest pain", "Vision problems",
				},
				prevention: []string{
					"Reduce salt intake (<5g/day)",
					"Regular exercise",
					"Maintain healthy weight",
					"Limit alcohol consumption",
					"Manage stress through yoga/meditation",
				},
				indianContext: "Common in Indian urban population. Reduce pickle, papad consumption. Include garlic, onion.",
				riskFactors: []string{
					"Age", "Family history", "Obesity", "High salt diet", "Stress", "Smoking",
				},
			},
			"dengue": {
				name:        "Dengue Fever",
				description: "A mosquito-borne viral infection common in tropical regions.",
				symptoms: []string{
					"High fever", "Severe headache", "Eye pain", "Muscle aches", "Skin rash", "Nausea",
				},
				prevention: []string{
					"Eliminate stagnant water around home",
					"Use mosquito nets and repellents",
					"Wear long-sleeved clothes",
					"Keep surroundings clean",
					"Use larvicide in water storage",
				},
				indianContext: "Peak season: Post-monsoon (Sept-Nov). Common in urban areas. Immediate medical attention needed.",
				riskFactors: []string{
					"Monsoon season", "Urban areas", "Stagnant water", "Poor sanitation",
				},
			},
		},
		facilities: map[string][]string{
			"mumbai": {
				"Tata Memorial Hospital", "KEM Hospital", "Lilavati Hospital",
				"Hinduja Hospital", "Jaslok Hospital", "Breach Candy Hospital",
			},
			"delhi": {
				"AIIMS Delhi", "Sir Ganga Ram Hospital", "Apollo Hospital",
				"Fortis Hospital", "Max Hospital", "Safdarjung Hospital",
			},
			"bangalore": {
				"Manipal Hospital", "Apollo Hospital", "Fortis Hospital",
				"Narayana Health", "St. John's Hospital", "Vikram Hospital",
			},
			"chennai": {
				"Apollo Hospital", "Fortis Malar", "MIOT Hospital",
				"Stanley Medical College", "Voluntary Health Services",
			},
			"hyderabad": {
				"Apollo Hospital", "NIMS Hospital", "Care Hospital",
				"Continental Hospital", "Yashoda Hospital",
			},
		},
	}
}

// DiseaseInfo answers a health education query from the disease table.
// Unknown conditions get a consult-a-professional fallback.
func (k *KnowledgeService) DiseaseInfo(query string) string {
	normalized := strings.ToLower(query)
	for key, disease := range k.diseases {
		if strings.Contains(normalized, key) || strings.Contains(normalized, strings.ToLower(disease.name)) {
			return k.formatDiseaseCard(disease)
		}
	}
	return "I don't have specific information about that condition. Please consult with a healthcare professional for accurate diagnosis and treatment."
}

// KnownDiseases lists the conditions the education table covers, sorted.
func (k *KnowledgeService) KnownDiseases() []string {
	names := make([]string, 0, len(k.diseases))
	for key := range k.diseases {
		names = append(names, key)
	}
	sort.Strings(names)
	return names
}

func (k *KnowledgeService) formatDiseaseCard(d diseaseCard) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📋 **%s**\n\n", d.name))
	b.WriteString(fmt.Sprintf("📖 **Description:**\n%s\n\n", d.description))

	b.WriteString("🔍 **Common Symptoms:**\n")
	for _, s := range d.symptoms {
		b.WriteString("• " + s + "\n")
	}

	b.WriteString("\n🛡️ **Prevention:**\n")
	for _, p := range d.prevention {
		b.WriteString("• " + p + "\n")
	}

	b.WriteString(fmt.Sprintf("\n🇮🇳 **Indian Context:**\n%s\n\n", d.indianContext))

	b.WriteString("⚠️ **Risk Factors:**\n")
	for _, r := range d.riskFactors {
		b.WriteString("• " + r + "\n")
	}

	b.WriteString("\n**Important:** This is general information only. Please consult a healthcare professional for proper diagnosis and treatment.")
	return b.String()
}

// PreventionTips answers prevention and health tips queries. Seasonal
// keywords pick the seasonal guide, everything else gets general tips.
func (k *KnowledgeService) PreventionTips(query string) string {
	normalized := strings.ToLower(query)
	for _, keyword := range []string{"seasonal", "monsoon", "summer", "winter"} {
		if strings.Contains(normalized, keyword) {
			return seasonalTips
		}
	}
	return generalTips
}

const generalTips = `🌟 GENERAL HEALTH PREVENTION TIPS:

🍎 NUTRITION:
• Include seasonal Indian fruits and vegetables
• Consume whole grains like brown rice, millets
• Include protein sources: dal, paneer, eggs, fish
• Limit processed and fried foods
• Stay hydrated with 8-10 glasses of water daily

🏃‍♂️ PHYSICAL ACTIVITY:
• 30 minutes of moderate exercise daily
• Include yoga or pranayama
• Take stairs instead of elevators
• Walk after meals for better digestion

😴 SLEEP & STRESS:
• 7-8 hours of quality sleep
• Practice meditation or deep breathing
• Maintain regular sleep schedule
• Limit screen time before bed

🧼 HYGIENE:
• Wash hands frequently with soap
• Maintain oral hygiene
• Keep surroundings clean
• Use mosquito protection (nets, repellents)`

const seasonalTips = `🌦️ SEASONAL HEALTH TIPS FOR INDIA:

MONSOON (June-September):
• Boil water before drinking
• Avoid street food and raw vegetables
• Use mosquito repellents (dengue/malaria prevention)
• Keep feet dry to prevent fungal infections

WINTER (December-February):
• Include vitamin C rich foods
• Stay warm and avoid sudden temperature changes
• Moisturize skin regularly
• Get adequate sunlight for Vitamin D

SUMMER (March-May):
• Stay hydrated, drink ORS if needed
• Avoid direct sun exposure (10 AM - 4 PM)
• Wear light-colored, loose cotton clothes
• Include cooling foods like cucumber, watermelon`

// FindFacilities answers a facility search for a city, with a generic
// prompt when the city is unknown or missing.
func (k *KnowledgeService) FindFacilities(city string) string {
	if city == "" {
		return `To find nearby medical facilities, please share your city or location.

Major cities I have information for:
• Mumbai • Delhi • Bangalore • Chennai • Hyderabad

You can also call:
• 102 - Ambulance
• 108 - Emergency Ambulance Service
• 112 - National Emergency Number`
	}

	normalized := strings.ToLower(city)
	facilities, ok := k.facilities[normalized]
	if !ok {
		return fmt.Sprintf(`I don't have specific facility information for %s. Please contact:
• 102 - Ambulance
• 108 - Emergency Ambulance Service
• Your local Primary Health Center (PHC)
• District Hospital`, city)
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("🏥 **Medical Facilities in %s:**\n\n", strings.ToUpper(normalized[:1])+normalized[1:]))
	for _, facility := range facilities {
		b.WriteString("• " + facility + "\n")
	}
	b.WriteString(`
📞 **Emergency Numbers:**
• 102 - Ambulance
• 108 - Emergency Ambulance Service
• 112 - National Emergency Number

**Tip:** For non-emergency care, you can also visit nearby Primary Health Centers (PHC) or Community Health Centers (CHC).`)
	return b.String()
}
