// Package skillnorm canonicalizes and classifies skill strings.
//
// Everything here is deterministic and table-driven: a skill string maps to a
// single canonical token, and classification answers whether a token is a
// soft skill or a generic tool-literacy skill. Matching precedence is
// significant: compound names (react native, next.js) resolve before their
// generic prefixes (react).
package skillnorm

import "strings"

// separator characters removed when building the lookup key.
const separators = ". _-/"

func stripKey(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if strings.ContainsRune(separators, r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// exact lookup on the separator-stripped lowercase key. Order-independent
// entries only; order-sensitive rules live in Normalize.
var canonical = map[string]string{
	// JavaScript family
	"js":         "javascript",
	"javascript": "javascript",
	"ecmascript": "javascript",
	"ts":         "typescript",
	"typescript": "typescript",
	"py":         "python",
	"python":     "python",
	"python3":    "python",
	"html":       "html",
	"html5":      "html",
	"css":        "css",
	"css3":       "css",

	// Framework families
	"vue":       "vue",
	"vuejs":     "vue",
	"angularjs": "angularjs",
	"angular1":  "angularjs",
	"angular":   "angular",
	"angular2":  "angular",
	"express":   "expressjs",
	"expressjs": "expressjs",
	"flutter":   "flutter",
	"dart":      "dart",
	"swift":     "swift",
	"swiftui":   "swiftui",
	"objc":      "objective-c",
	"objectivec": "objective-c",
	"kotlin":    "kotlin",
	"java":      "java",

	// Databases, kept distinct
	"sql":        "sql",
	"mysql":      "mysql",
	"postgres":   "postgresql",
	"postgresql": "postgresql",
	"psql":       "postgresql",
	"mssql":      "mssql",
	"sqlserver":  "mssql",
	"sqlite":     "sqlite",
	"sqlite3":    "sqlite",
	"mongo":      "mongodb",
	"mongodb":    "mongodb",
	"redis":      "redis",
	"dynamodb":   "dynamodb",
	"cassandra":  "cassandra",
	"firebase":   "firebase",

	// Cloud / DevOps / ML
	"aws":                "aws",
	"amazonwebservices":  "aws",
	"azure":              "azure",
	"gcp":                "gcp",
	"googlecloud":        "gcp",
	"googlecloudplatform": "gcp",
	"docker":             "docker",
	"kubernetes":         "kubernetes",
	"k8s":                "kubernetes",
	"cicd":               "cicd",
	"tensorflow":         "tensorflow",
	"pytorch":            "pytorch",
	"machinelearning":    "machine-learning",
	"deeplearning":       "deep-learning",
}

// Normalize maps any spelling variant of a skill to its canonical token.
// Unknown skills fall back to the lowercase separator-stripped remainder, so
// the function is idempotent for every input.
func Normalize(s string) string {
	lower := strings.ToLower(strings.TrimSpace(s))
	key := stripKey(lower)

	// Compound and specific names win over their generic prefixes.
	switch {
	case strings.Contains(key, "reactnative"):
		return "react-native"
	case key == "next" || key == "nextjs":
		return "nextjs"
	case key == "nuxt" || key == "nuxtjs":
		return "nuxtjs"
	case key == "react" || key == "reactjs":
		return "react"
	}

	// Node.js family, guarded so react/next flavored names never collapse
	// into the runtime.
	if !strings.Contains(key, "react") && !strings.Contains(key, "next") {
		if key == "node" || key == "nodejs" {
			return "nodejs"
		}
	}

	if c, ok := canonical[key]; ok {
		return c
	}
	return key
}

// softSkills holds soft-skill tokens keyed by their stripped form.
var softSkills = map[string]struct{}{
	"communication":       {},
	"teamwork":            {},
	"leadership":          {},
	"projectmanagement":   {},
	"timemanagement":      {},
	"problemsolving":      {},
	"criticalthinking":    {},
	"analyticalthinking":  {},
	"strategicthinking":   {},
	"creativity":          {},
	"adaptability":        {},
	"collaboration":       {},
	"attentiontodetail":   {},
	"organization":        {},
	"publicspeaking":      {},
	"presentation":        {},
	"presentationskills":  {},
	"negotiation":         {},
	"mentoring":           {},
	"coaching":            {},
	"conflictresolution":  {},
	"decisionmaking":      {},
	"emotionalintelligence": {},
	"empathy":             {},
	"flexibility":         {},
	"initiative":          {},
	"innovation":          {},
	"interpersonalskills": {},
	"multitasking":        {},
	"stressmanagement":    {},
	"workethic":           {},
	"customerservice":     {},
	"teamplayer":          {},
}

// IsSoftSkill reports whether the string names a soft skill.
func IsSoftSkill(s string) bool {
	_, ok := softSkills[stripKey(strings.ToLower(strings.TrimSpace(s)))]
	return ok
}

// genericTech holds tool-literacy tokens that almost every candidate lists.
// They still count as technical, but carry far less matching signal.
var genericTech = map[string]struct{}{
	"git":             {},
	"github":          {},
	"gitlab":          {},
	"bitbucket":       {},
	"microsoftoffice": {},
	"msoffice":        {},
	"office":          {},
	"word":            {},
	"excel":           {},
	"powerpoint":      {},
	"outlook":         {},
	"windows":         {},
	"linux":           {},
	"macos":           {},
	"agile":           {},
	"scrum":           {},
	"kanban":          {},
	"jira":            {},
	"trello":          {},
	"confluence":      {},
	"slack":           {},
	"teams":           {},
	"zoom":            {},
}

// IsGenericTechSkill reports whether the string names generic tooling that is
// down-weighted during scoring.
func IsGenericTechSkill(s string) bool {
	_, ok := genericTech[stripKey(strings.ToLower(strings.TrimSpace(s)))]
	return ok
}

// sqlFamily is the set of dialects considered interchangeable for matching,
// so a candidate with mysql satisfies a plain sql requirement.
var sqlFamily = map[string]struct{}{
	"sql":        {},
	"mysql":      {},
	"postgresql": {},
	"mssql":      {},
	"sqlite":     {},
}

// AreSQLCompatible reports whether both tokens belong to the SQL family.
// Inputs are normalized before the lookup.
func AreSQLCompatible(a, b string) bool {
	_, okA := sqlFamily[Normalize(a)]
	if !okA {
		return false
	}
	_, okB := sqlFamily[Normalize(b)]
	return okB
}
