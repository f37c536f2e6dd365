package fix

import "strings"

const otherGuard = "\uE100"

// GenderFix aligns third-person pronouns with the source. 彼女 alone makes
// 他 into 她; 彼 without 彼女 makes 她 into 他. Mixed sources are left alone.
// The compound 其他 ("other") is never touched.
func GenderFix(original, text string) string {
	female := strings.Contains(original, "彼女")
	male := strings.Contains(strings.ReplaceAll(original, "彼女", ""), "彼")

	var from, to string
	switch {
	case female && !male:
		from, to = "他", "她"
	case male && !female:
		from, to = "她", "他"
	default:
		return text
	}

	text = strings.ReplaceAll(text, "其他", otherGuard)
	text = strings.ReplaceAll(text, from, to)
	return strings.ReplaceAll(text, otherGuard, "其他")
}
