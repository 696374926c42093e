package junk

const weekday = `(?:الاثنين|الثلاثاء|الاربعاء|الخميس|الجمعة|السبت|الأحد)`

// DefaultTable holds the built-in site rules. It is read-only after init.
var DefaultTable = Table{
	{
		Domain: "b2b-sy.com",
		Strategy: MustStrategy("b2b-sy.com", SiteRules{
			Decompose: []Rule{
				{Pattern: `^\s*خاص\s+B2B-SY\s*$`, Flags: "im", Tolerance: 20},
				{Pattern: `^\s*` + weekday + `\s+\d{1,2}/\d{1,2}/\d{4}\s*$`, Flags: "m", Tolerance: 10},
			},
			Inline: []InlineRule{
				{Pattern: `خاص\s+B2B-SY`, Flags: "i"},
				{Pattern: weekday + `\s+\d{1,2}/\d{1,2}/\d{4}`, Flags: "m"},
			},
		}),
	},
	{
		Domain: "ajel.sa",
		Strategy: MustStrategy("ajel.sa", SiteRules{
			Decompose: []Rule{
				{Pattern: `^\s*فريق\s+التحرير\s*$`, Flags: "im", Tolerance: 5},
				{Pattern: `^\s*تم\s+النشر\s+في\s*:\s*\d{1,2}\s+\w+\s+\d{4}.*?(?:صباحاً|مساءً|م|ص|AM|PM)\s*$`, Flags: "is", Tolerance: 60},
				{Pattern: `^\s*اقرأ أيضا(?:ً)?:.*$`, Flags: "is", Tolerance: 0},
				{Pattern: `^\s*لمتابعة\s+أخبار\s+عاجل\s+عبر\s+تطبيق\s+نبض\s*$`, Flags: "im", Tolerance: 0},
				{Pattern: `^\s*اضغط\s+هنا\s*$`, Flags: "im", Tolerance: 0},
				{Pattern: `^\s*ضيوف\s+الرحمن.*أهم\s+الأخبار\s*$`, Flags: "im", Tolerance: 30},
			},
			Inline: []InlineRule{
				{Pattern: `فريق\s+التحرير\s+تم\s+النشر\s+في\s*:\s*\d{1,2}\s+\w+\s+\d{4}[^<]*?(?:صباحاً|مساءً|م|ص|AM|PM)`, Flags: "is"},
				{Pattern: `فريق\s+التحرير`, Flags: "i"},
				{Pattern: `ضيوف\s+الرحمن\s+المفتي\s+العام\s+للمملكة\s+أخبار\s+السعودية\s+أهم\s+الآخبار\s+الحج\s+بدون\s+تصريح\s+أهم\s+الأخبار`, Flags: "i"},
				{Pattern: `اقرأ أيضا(?:ً)?:`, Flags: "i"},
				{Pattern: `لمتابعة\s+أخبار\s+عاجل\s+عبر\s+تطبيق\s+نبض`, Flags: "i"},
			},
		}),
	},
}
