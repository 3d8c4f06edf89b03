package triage

// indicatorCategory groups emergency phrases by clinical presentation.
// Weights are on a normalized [0,1] scale; cap bounds the summed score
// of a category so stacked lower-tier matches cannot cross into the
// emergency band on their own.
type indicatorCategory struct {
	name    string
	weight  float64
	cap     float64
	phrases []string
}

const (
	emergencyPhraseWeight = 0.9
	urgentPhraseWeight    = 0.6
	urgentTierCap         = 0.8
)

// Iteration order is fixed so matched signals come out deterministic.
var indicatorCategories = []indicatorCategory{
	{
		name:   "cardiac",
		weight: emergencyPhraseWeight,
		cap:    1.0,
		phrases: []string{
			"chest pain", "crushing pain", "crushing chest pain", "chest pain radiating",
			"radiating pain", "squeezing chest", "heart attack", "myocardial infarction",
		},
	},
	{
		name:   "respiratory",
		weight: emergencyPhraseWeight,
		cap:    1.0,
		phrases: []string{
			"difficulty breathing", "can't breathe", "cannot breathe", "gasping", "choking",
		},
	},
	{
		name:   "neurological",
		weight: emergencyPhraseWeight,
		cap:    1.0,
		phrases: []string{
			"sudden severe headache", "worst headache", "thunderclap headache",
			"slurred speech", "face drooping", "arm weakness", "facial paralysis",
			"seizure", "convulsions", "fitting",
			"unconscious", "loss of consciousness", "passed out", "unresponsive",
			"stroke", "brain attack",
		},
	},
	{
		name:   "allergic",
		weight: emergencyPhraseWeight,
		cap:    1.0,
		phrases: []string{
			"severe allergic reaction", "anaphylaxis", "throat swelling", "airway closing",
		},
	},
	{
		name:   "trauma",
		weight: emergencyPhraseWeight,
		cap:    1.0,
		phrases: []string{
			"severe bleeding", "heavy bleeding", "hemorrhage", "uncontrolled bleeding",
			"severe abdominal pain", "rigid abdomen", "board-like abdomen",
			"severe burn", "large burn", "third degree burn",
			"poisoning", "overdose", "swallowed poison",
			"severe head injury", "head trauma", "skull fracture",
		},
	},
	{
		name:   "psychiatric",
		weight: emergencyPhraseWeight,
		cap:    1.0,
		phrases: []string{
			"suicidal", "want to die", "kill myself", "end my life",
		},
	},
	{
		name:   "urgent",
		weight: urgentPhraseWeight,
		cap:    urgentTierCap,
		phrases: []string{
			"high fever", "fever over 103", "persistent fever", "fever 104",
			"severe pain", "pain 8", "pain 9", "pain 10", "unbearable pain",
			"persistent vomiting", "can't keep anything down", "vomiting blood",
			"blood in stool", "blood in urine", "coughing blood", "bloody discharge",
			"severe injury", "broken bone", "deep cut", "deep wound",
			"severe dehydration", "very dehydrated", "no urination",
			"severe rash", "spreading rash", "painful rash",
			"eye injury", "vision loss", "sudden vision change", "eye trauma",
			"severe swelling", "rapid swelling", "swelling spreading",
		},
	},
}

// bodySystemKeywords maps affected body systems to the everyday terms
// patients use for them. Used to tag messages for retrieval filtering
// and the assessment response.
var bodySystemKeywords = map[string][]string{
	"respiratory": {
		"breathing", "cough", "lungs", "chest", "wheezing",
		"shortness of breath", "respiratory", "airway",
	},
	"cardiovascular": {
		"heart", "chest pain", "palpitations", "pulse",
		"blood pressure", "circulation", "cardiac",
	},
	"gastrointestinal": {
		"stomach", "nausea", "vomiting", "diarrhea", "abdominal",
		"bowel", "intestinal", "digestive", "gastric",
	},
	"neurological": {
		"headache", "dizziness", "confusion", "numbness", "tingling",
		"weakness", "seizure", "neurological", "brain",
	},
	"musculoskeletal": {
		"pain", "joint", "muscle", "back", "sprain",
		"fracture", "bone", "tendon", "ligament",
	},
	"dermatological": {
		"skin", "rash", "itching", "lesion", "wound",
		"burn", "cut", "bruise", "swelling",
	},
	"mental_health": {
		"anxiety", "depression", "stress", "panic", "mood",
		"mental", "psychological", "psychiatric",
	},
	"general": {
		"fever", "fatigue", "weakness", "weight loss",
		"malaise", "tired", "exhausted",
	},
}

// bodySystemOrder fixes iteration order over bodySystemKeywords.
var bodySystemOrder = []string{
	"respiratory", "cardiovascular", "gastrointestinal", "neurological",
	"musculoskeletal", "dermatological", "mental_health", "general",
}
