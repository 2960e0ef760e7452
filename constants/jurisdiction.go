package constants

import "strings"

// JurisdictionGuidance is short legal context injected into extraction prompts.
// It frames what the model should flag, not legal advice.
var JurisdictionGuidance = map[string]string{
	"CA": "California (Fam. Code 3011, 3020): courts weigh the child's health, safety and welfare, any history of abuse, and the nature and amount of contact with both parents. Note frequent and continuing contact, and any conduct that frustrates it.",
	"TX": "Texas (Fam. Code 153.002, 153.256): the best interest of the child is the primary consideration. Possession schedule compliance, pickup and return times, and communication about the child are commonly examined.",
	"NY": "New York (DRL 240): best interests of the child, including each parent's willingness to foster a relationship with the other parent. Interference with parenting time is a significant factor.",
	"FL": "Florida (Stat. 61.13): the court evaluates each parent's demonstrated capacity to facilitate a close relationship with the other parent, honor the time-sharing schedule, and be reasonable when changes are required.",
	"IL": "Illinois (750 ILCS 5/602.7): allocation of parenting time considers each parent's prior involvement, the child's adjustment, and the willingness of each parent to place the child's needs ahead of their own.",
	"WA": "Washington (RCW 26.09.187, 26.09.191): the parenting plan considers the strength of each parent's relationship with the child and any limiting factors such as abusive use of conflict or withholding access.",
	"CO": "Colorado (C.R.S. 14-10-124): best interests include the ability of each party to encourage the sharing of love, affection and contact, and whether one party has been responsible for continuing violations of parenting time orders.",
	"AZ": "Arizona (A.R.S. 25-403): factors include whether one parent intentionally misled the court, the past and potential future relationship of each parent and child, and which parent is more likely to allow frequent and meaningful contact.",
	"GA": "Georgia (O.C.G.A. 19-9-3): factors include each parent's knowledge of the child's needs, willingness to facilitate a relationship with the other parent, and any evidence of family violence.",
	"OH": "Ohio (R.C. 3109.04): the court considers which parent is more likely to honor and facilitate court-approved parenting time, and whether either parent has continuously and willfully denied the other's parenting time.",
}

var stateNames = map[string]string{
	"california": "CA",
	"texas":      "TX",
	"new york":   "NY",
	"florida":    "FL",
	"illinois":   "IL",
	"washington": "WA",
	"colorado":   "CO",
	"arizona":    "AZ",
	"georgia":    "GA",
	"ohio":       "OH",
}

// GuidanceFor resolves a jurisdiction (state code or name, optionally with a county
// prefix like "Travis County, TX") to its guidance text.
func GuidanceFor(jurisdiction string, table map[string]string) (string, bool) {
	if table == nil {
		table = JurisdictionGuidance
	}
	j := strings.TrimSpace(jurisdiction)
	if j == "" {
		return "", false
	}
	if i := strings.LastIndex(j, ","); i >= 0 {
		j = strings.TrimSpace(j[i+1:])
	}
	if g, ok := table[strings.ToUpper(j)]; ok {
		return g, true
	}
	if code, ok := stateNames[strings.ToLower(j)]; ok {
		g, ok := table[code]
		return g, ok
	}
	return "", false
}
