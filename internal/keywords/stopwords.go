package keywords

func wordSet(words ...string) map[string]bool {
	m := make(map[string]bool, len(words))
	for _, w := range words {
		m[w] = true
	}
	return m
}

var stopwords = map[string]map[string]bool{
	"en": wordSet(
		"a", "about", "above", "after", "again", "against", "all", "am", "an", "and",
		"any", "are", "as", "at", "be", "because", "been", "before", "being", "below",
		"between", "both", "but", "by", "can", "did", "do", "does", "doing", "down",
		"during", "each", "few", "for", "from", "further", "had", "has", "have", "having",
		"he", "her", "here", "hers", "herself", "him", "himself", "his", "how", "i",
		"if", "in", "into", "is", "it", "its", "itself", "just", "me", "more",
		"most", "my", "myself", "no", "nor", "not", "now", "of", "off", "on",
		"once", "only", "or", "other", "our", "ours", "ourselves", "out", "over", "own",
		"same", "she", "should", "so", "some", "such", "than", "that", "the", "their",
		"theirs", "them", "themselves", "then", "there", "these", "they", "this", "those", "through",
		"to", "too", "under", "until", "up", "very", "was", "we", "were", "what",
		"when", "where", "which", "while", "who", "whom", "why", "will", "with", "would",
		"you", "your", "yours", "yourself", "yourselves", "said", "says", "also",
	),
	"ar": wordSet(
		"في", "من", "على", "إلى", "الى", "عن", "مع", "هذا", "هذه", "ذلك",
		"تلك", "التي", "الذي", "الذين", "اللذين", "اللتين", "اللاتي", "كان", "كانت", "يكون",
		"تكون", "ليس", "ليست", "قد", "لقد", "لم", "لن", "لا", "ما", "ماذا",
		"متى", "أين", "اين", "كيف", "كل", "بعض", "غير", "بين", "حتى", "إذا",
		"اذا", "ثم", "أو", "او", "أن", "ان", "إن", "أنه", "انه", "أنها",
		"انها", "هو", "هي", "هم", "هن", "نحن", "أنت", "انت", "أنا", "انا",
		"عند", "عندما", "منذ", "خلال", "بعد", "قبل", "حول", "دون", "فوق", "تحت",
		"أمام", "امام", "وراء", "لدى", "لكن", "ولكن", "وقد", "وهو", "وهي", "فيه",
		"فيها", "منه", "منها", "عليه", "عليها", "إلا", "الا", "أي", "اي", "كما",
		"مثل", "أيضا", "ايضا", "هناك", "هنا", "وفي", "ومن", "وعلى", "التى", "يمكن",
		"حيث", "وقال", "قال", "وأن", "وان", "بها", "به", "لها", "له", "ذات",
	),
}
