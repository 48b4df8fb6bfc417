package metar

import "strings"

// weather phenomena abbreviations
var weatherCodes = map[string]string{
	"VC": "vicinity",
	"MI": "shallow",
	"PR": "partial",
	"BC": "patches",
	"DR": "low drifting",
	"BL": "blowing",
	"SH": "shower",
	"TS": "thunderstorm",
	"FZ": "freezing",
	"DZ": "drizzle",
	"RA": "rain",
	"SN": "snow",
	"SG": "snow grains",
	"IC": "ice crystals",
	"PL": "ice pellets",
	"GR": "hail",
	"GS": "small hail",
	"UP": "unknown precipitation",
	"BR": "mist",
	"FG": "fog",
	"FU": "smoke",
	"VA": "volcanic ash",
	"DU": "widespread dust",
	"SA": "sand",
	"HZ": "haze",
	"PY": "spray",
	"PO": "dust whirls",
	"SQ": "squalls",
	"FC": "funnel cloud",
	"SS": "sandstorm",
	"DS": "duststorm",
}

// Describe spells out a wx_string such as "-SHRA BR" as "light shower rain, mist"
func Describe(wx string) string {
	var groups []string
	for _, group := range strings.Fields(wx) {
		var words []string
		switch {
		case strings.HasPrefix(group, "+"):
			words = append(words, "heavy")
			group = group[1:]
		case strings.HasPrefix(group, "-"):
			words = append(words, "light")
			group = group[1:]
		}
		for len(group) >= 2 {
			if w, ok := weatherCodes[group[:2]]; ok {
				words = append(words, w)
			} else {
				words = append(words, group[:2])
			}
			group = group[2:]
		}
		if len(words) > 0 {
			groups = append(groups, strings.Join(words, " "))
		}
	}
	return strings.Join(groups, ", ")
}
