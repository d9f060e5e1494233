package display

// Reason selects the banner and fallback message of an error image.
type Reason string

const (
	ReasonNetwork  Reason = "network"
	ReasonAuth     Reason = "auth"
	ReasonNotFound Reason = "not_found"
	ReasonParse    Reason = "parse"
	ReasonNoData   Reason = "no_data"
)

func (r Reason) Title() string {
	switch r {
	case ReasonNetwork:
		return "Connection Error"
	case ReasonAuth:
		return "Authentication Error"
	case ReasonNotFound:
		return "Vessel Not Found"
	case ReasonParse:
		return "Data Error"
	case ReasonNoData:
		return "No Data Available"
	default:
		return "Error"
	}
}

// DefaultDetail is shown when the caller has nothing more specific to say.
func (r Reason) DefaultDetail() string {
	switch r {
	case ReasonNetwork:
		return "No connection to vessel tracking service"
	case ReasonAuth:
		return "Vessel tracking service rejected the API key"
	case ReasonNotFound:
		return "Vessel is not known to the tracking service"
	case ReasonParse:
		return "Unexpected response from vessel tracking service"
	case ReasonNoData:
		return "No vessel position has been received yet"
	default:
		return "Vessel data is unavailable"
	}
}
