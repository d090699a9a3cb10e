package crisis

var (
	lifeline = Resource{
		Name:        "988 Suicide & Crisis Lifeline",
		Contact:     "Call or text 988",
		Description: "Free, confidential support 24/7 in the US.",
	}
	textLine = Resource{
		Name:        "Crisis Text Line",
		Contact:     "Text HOME to 741741",
		Description: "Text with a trained crisis counselor 24/7.",
	}
	emergency = Resource{
		Name:        "Emergency services",
		Contact:     "Call 911",
		Description: "If you or someone else is in immediate danger.",
	}
	domesticViolence = Resource{
		Name:        "National Domestic Violence Hotline",
		Contact:     "Call 1-800-799-7233 or text START to 88788",
		Description: "Confidential support for anyone experiencing abuse.",
	}
	samhsa = Resource{
		Name:        "SAMHSA National Helpline",
		Contact:     "Call 1-800-662-4357",
		Description: "Treatment referral and information for substance use, 24/7.",
	}
	poison = Resource{
		Name:    "Poison Control",
		Contact: "Call 1-800-222-1222",
	}
)

// ResourcesFor returns the static resource list for a crisis type. The
// lifeline, text line and emergency number are always included.
func ResourcesFor(t Type) []Resource {
	out := []Resource{lifeline, textLine, emergency}
	switch t {
	case TypeAbuse, TypeViolence:
		out = append(out, domesticViolence)
	case TypeSubstance:
		out = append(out, samhsa, poison)
	case TypeMedicalEmergency:
		out = []Resource{emergency, poison, lifeline}
	}
	return out
}

const (
	moderateNotice = "It sounds like things are heavy right now, and you don't have to carry this alone. " +
		"Talking with a mental health professional can help. In the US you can call or text 988 at any time."
	failSafeNotice = "We couldn't complete a safety check on your message. If you're struggling, please reach out " +
		"to a professional, or call or text 988 in the US."
)
