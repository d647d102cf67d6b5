package pricing

// Internship fees in INR, fixed at build time.
var table = map[string]map[string]int64{
	"Data Analyst": {
		"1 month": 500,
		"3 month": 1200,
		"6 month": 2000,
	},
	"Data Scientist": {
		"1 month": 700,
		"3 month": 1500,
		"6 month": 2500,
	},
	"AI Engineer": {
		"1 month": 800,
		"3 month": 1600,
		"6 month": 2700,
	},
	"Android Developer": {
		"1 month": 600,
		"3 month": 1300,
		"6 month": 2200,
	},
}

// Amount returns the fee for a position and duration. Pairs outside the
// table price at 0, matching the backend's billing expectations.
func Amount(position, duration string) int64 {
	durations, ok := table[position]
	if !ok {
		return 0
	}
	return durations[duration]
}
