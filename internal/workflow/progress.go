package workflow

// ProgressMessage maps a progress value onto the user-facing step label
func ProgressMessage(progress int) string {
	switch {
	case progress < 20:
		return "Analyzing job requirements..."
	case progress < 40:
		return "Matching your experience..."
	case progress < 60:
		return "Optimizing keywords..."
	case progress < 80:
		return "Restructuring content..."
	case progress < 100:
		return "Final optimization..."
	default:
		return "Complete!"
	}
}
