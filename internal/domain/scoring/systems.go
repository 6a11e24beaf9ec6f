package scoring

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"

	"github.com/vascintake/vascintake/internal/domain/interview"
)

// =========== Rutherford ===========

type rutherfordCategory struct {
	label       string
	description string
	icd10Hint   string
}

var rutherfordCategories = [...]rutherfordCategory{
	{"Asymptomatic", "No symptoms, abnormal ABI only", "I70.219"},
	{"Mild Claudication", "Completes treadmill test, AP after exercise >50mmHg but >25mmHg less than resting", "I70.211"},
	{"Moderate Claudication", "Between mild and severe", "I70.212"},
	{"Severe Claudication", "Cannot complete treadmill test, AP after exercise <50mmHg", "I70.213"},
	{"Ischemic Rest Pain", "Rest pain, AP at rest <40mmHg, flat or barely pulsatile PVR", "I70.221"},
	{"Minor Tissue Loss", "Nonhealing ulcer, focal gangrene with diffuse pedal ischemia", "I70.231"},
	{"Major Tissue Loss", "Extending above TM level, functional foot no longer salvageable", "I70.261"},
}

const feetPerBlock = 100

// RutherfordCategory classifies PAD severity from 0 (asymptomatic) to 6
// (major tissue loss).
func RutherfordCategory(a interview.Answers) int {
	switch {
	case a.AnyChecked("gangrene_above_tm", "unsalvageable_foot"):
		return 6
	case a.AnyChecked("gangrene", "nonhealing_ulcer", "open_wounds") || a.Documented("wounds_present"):
		return 5
	case a.AnyChecked("rest_pain", "night_pain", "hang_leg", "pain_wakes"):
		return 4
	case a.Checked("leg_pain_walking"):
		feet := WalkingDistanceFeet(a.TextOrValue("walking_distance"))
		switch {
		case math.IsNaN(feet) || feet <= 0:
			return 2
		case feet < 100:
			return 3
		case feet < 400:
			return 2
		}
		return 1
	}
	return 0
}

// WalkingDistanceFeet converts a free-text walking distance to feet. Bare
// numbers are feet; blocks count as 100 ft and miles as 5280 ft. Yards,
// meters and kilometers are converted too. The first unit word wins. NaN
// means no distance was given.
func WalkingDistanceFeet(s string) float64 {
	v := interview.ParseLeadingFloat(s)
	if math.IsNaN(v) {
		return v
	}
	words := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && r != '\''
	})
	for _, w := range words {
		if f, ok := feetPerUnit[w]; ok {
			return v * f
		}
	}
	return v
}

var feetPerUnit = map[string]float64{
	"ft": 1, "foot": 1, "feet": 1,
	"block": feetPerBlock, "blocks": feetPerBlock,
	"mi": 5280, "mile": 5280, "miles": 5280,
	"yd": 3, "yds": 3, "yard": 3, "yards": 3,
	"m": 3.28084, "meter": 3.28084, "meters": 3.28084, "metre": 3.28084, "metres": 3.28084,
	"km": 3280.84, "kilometer": 3280.84, "kilometers": 3280.84, "kilometre": 3280.84, "kilometres": 3280.84,
}

func rutherford(a interview.Answers) (Result, error) {
	cat := RutherfordCategory(a)
	c := rutherfordCategories[cat]
	return Result{
		Value:       strconv.Itoa(cat),
		Score:       intPtr(cat),
		Label:       c.label,
		Description: c.description,
		ICD10Hint:   c.icd10Hint,
	}, nil
}

// =========== CEAP ===========

var ceapClinical = map[string]string{
	"C0":  "No visible or palpable signs of venous disease",
	"C1":  "Telangiectasias or reticular veins",
	"C2":  "Varicose veins",
	"C3":  "Edema",
	"C4a": "Pigmentation or eczema",
	"C4b": "Lipodermatosclerosis or atrophie blanche",
	"C5":  "Healed venous ulcer",
	"C6":  "Active venous ulcer",
}

// CEAPClass returns the CEAP clinical class, C0 through C6.
func CEAPClass(a interview.Answers) string {
	switch {
	case a.Checked("active_ulcer") || a.Documented("ulcers"):
		return "C6"
	case a.Checked("healed_ulcer"):
		return "C5"
	case a.AnyChecked("skin_changes_lipoderm", "lipodermatosclerosis"):
		return "C4b"
	case a.AnyChecked("skin_changes_pigment", "eczema", "discoloration"):
		return "C4a"
	case a.AnyChecked("leg_swelling", "legs_heavy"):
		return "C3"
	case a.AnyChecked("varicose_veins", "visible_veins"):
		return "C2"
	case a.Checked("spider_veins"):
		return "C1"
	}
	return "C0"
}

func ceap(a interview.Answers) (Result, error) {
	class := CEAPClass(a)
	return Result{Value: class, Label: class, Description: ceapClinical[class]}, nil
}

// =========== Wagner ===========

var wagnerGrades = [...]string{
	"Intact skin, bony deformity / at risk foot",
	"Superficial ulcer",
	"Deep ulcer to tendon/bone/joint",
	"Deep ulcer with abscess or osteomyelitis",
	"Partial foot gangrene (forefoot or heel)",
	"Whole foot gangrene requiring amputation",
}

// WagnerGrade grades a diabetic foot ulcer from 0 to 5.
func WagnerGrade(a interview.Answers) int {
	switch {
	case a.Checked("whole_foot_gangrene"):
		return 5
	case a.AnyChecked("partial_gangrene", "gangrene"):
		return 4
	case a.AnyChecked("osteomyelitis", "abscess"):
		return 3
	case a.AnyChecked("deep_ulcer", "exposed_structures"):
		return 2
	case a.AnyChecked("superficial_ulcer", "open_wounds", "nonhealing_ulcer") || a.Documented("wounds_present"):
		return 1
	}
	return 0
}

func wagner(a interview.Answers) (Result, error) {
	g := WagnerGrade(a)
	return Result{
		Value:       strconv.Itoa(g),
		Score:       intPtr(g),
		Label:       fmt.Sprintf("Grade %d", g),
		Description: wagnerGrades[g],
	}, nil
}

// =========== WIfI ===========

// WIfIGrades holds the wound, ischemia and foot infection grades, each 0-3.
type WIfIGrades struct {
	Wound, Ischemia, FootInfection int
}

// Total is the sum of the three grades.
func (g WIfIGrades) Total() int {
	return g.Wound + g.Ischemia + g.FootInfection
}

// AmputationRisk maps the grade total to a one-year amputation risk band.
func (g WIfIGrades) AmputationRisk() string {
	switch t := g.Total(); {
	case t <= 2:
		return "Very Low"
	case t <= 4:
		return "Low"
	case t <= 6:
		return "Moderate"
	}
	return "High"
}

// RevascularizationBenefit estimates the benefit of revascularization.
func (g WIfIGrades) RevascularizationBenefit() string {
	switch {
	case g.Ischemia == 0:
		return "None, adequate perfusion"
	case g.Ischemia == 1 && g.Wound <= 1:
		return "Low"
	case g.Ischemia >= 2 && g.Wound >= 2:
		return "High"
	}
	return "Moderate"
}

// IschemiaGradeFromABI maps an ankle-brachial index to the WIfI ischemia grade.
func IschemiaGradeFromABI(abi float64) int {
	switch {
	case abi >= 0.8:
		return 0
	case abi >= 0.6:
		return 1
	case abi >= 0.4:
		return 2
	}
	return 3
}

// WIfIFromAnswers reads explicit grades (wifi_wound, wifi_ischemia,
// wifi_foot_infection). A missing ischemia grade is derived from the ABI.
func WIfIFromAnswers(a interview.Answers) (WIfIGrades, error) {
	wound, err := grade(a, "wifi_wound")
	if err != nil {
		return WIfIGrades{}, err
	}
	infection, err := grade(a, "wifi_foot_infection")
	if err != nil {
		return WIfIGrades{}, err
	}
	ischemia, err := grade(a, "wifi_ischemia")
	if err != nil {
		abi := a.Number("abi")
		if math.IsNaN(abi) {
			return WIfIGrades{}, err
		}
		ischemia = IschemiaGradeFromABI(abi)
	}
	return WIfIGrades{Wound: wound, Ischemia: ischemia, FootInfection: infection}, nil
}

func grade(a interview.Answers, id string) (int, error) {
	v := a.Number(id)
	if math.IsNaN(v) {
		return 0, fmt.Errorf("%w: %s missing", ErrInsufficientData, id)
	}
	if v < 0 || v > 3 || v != math.Trunc(v) {
		return 0, fmt.Errorf("%s must be a grade from 0 to 3, got %v", id, v)
	}
	return int(v), nil
}

func wifi(a interview.Answers) (Result, error) {
	g, err := WIfIFromAnswers(a)
	if err != nil {
		return Result{}, err
	}
	return Result{
		Value:          fmt.Sprintf("W%dI%dfI%d", g.Wound, g.Ischemia, g.FootInfection),
		Score:          intPtr(g.Total()),
		Label:          g.AmputationRisk() + " amputation risk",
		Recommendation: "Revascularization benefit: " + g.RevascularizationBenefit(),
		Components: map[string]int{
			"wound":          g.Wound,
			"ischemia":       g.Ischemia,
			"foot_infection": g.FootInfection,
		},
	}, nil
}

// =========== Carotid grading ===========

type carotidGrade struct {
	rangeLabel     string
	description    string
	recommendation string
	maxPercent     float64
}

var carotidGrades = [...]carotidGrade{
	{"0%", "Normal", "No intervention", 0},
	{"1-49%", "Mild stenosis", "Medical management, risk factor modification", 49},
	{"50-69%", "Moderate stenosis", "Consider CEA if symptomatic (NNT ~15)", 69},
	{"70-99%", "Severe stenosis", "CEA recommended if symptomatic (NNT ~6), consider if asymptomatic with life expectancy >5yr", 99},
	{"100%", "Total occlusion", "Medical management (no revascularization)", 100},
}

// CarotidGrade returns the NASCET grade row for a stenosis percentage.
func CarotidGrade(percent float64) (rangeLabel, description, recommendation string, err error) {
	if math.IsNaN(percent) || percent < 0 || percent > 100 {
		return "", "", "", fmt.Errorf("%w: stenosis percent", ErrInsufficientData)
	}
	for _, g := range carotidGrades {
		if percent <= g.maxPercent {
			return g.rangeLabel, g.description, g.recommendation, nil
		}
	}
	last := carotidGrades[len(carotidGrades)-1]
	return last.rangeLabel, last.description, last.recommendation, nil
}

func carotidGrading(a interview.Answers) (Result, error) {
	rangeLabel, desc, rec, err := CarotidGrade(a.Number("stenosis_percent"))
	if err != nil {
		return Result{}, err
	}
	if a.AnyChecked("tia_history", "stroke_tia", "stroke_history", "vision_loss") {
		desc += ", symptomatic"
	}
	return Result{Value: rangeLabel, Label: rangeLabel, Description: desc, Recommendation: rec}, nil
}

// =========== NIHSS ===========

type nihssItem struct {
	id    string
	label string
	max   int
}

var nihssItems = [...]nihssItem{
	{"1a", "LOC Responsiveness", 3},
	{"1b", "LOC Questions", 2},
	{"1c", "LOC Commands", 2},
	{"2", "Best Gaze", 2},
	{"3", "Visual", 3},
	{"4", "Facial Palsy", 3},
	{"5", "Motor Arm", 4},
	{"6", "Motor Leg", 4},
	{"7", "Limb Ataxia", 2},
	{"8", "Sensory", 2},
	{"9", "Best Language", 3},
	{"10", "Dysarthria", 2},
	{"11", "Extinction/Inattention", 2},
}

// NIHSSMax is the highest possible NIHSS total.
const NIHSSMax = 34

// NIHSSInterpretation maps an NIHSS total to its severity band.
func NIHSSInterpretation(score int) string {
	switch {
	case score <= 0:
		return "No stroke symptoms"
	case score <= 4:
		return "Minor stroke"
	case score <= 15:
		return "Moderate stroke"
	case score <= 20:
		return "Moderate to severe stroke"
	}
	return "Severe stroke"
}

// NIHSSTotal sums the item scores recorded as nihss_<item> answers. Each
// item is clamped to its range. The error reports that no item was scored.
func NIHSSTotal(a interview.Answers) (int, map[string]int, error) {
	total := 0
	items := make(map[string]int)
	for _, item := range nihssItems {
		v := a.Number("nihss_" + item.id)
		if math.IsNaN(v) {
			continue
		}
		n := min(max(int(v), 0), item.max)
		items[item.id] = n
		total += n
	}
	if len(items) == 0 {
		return 0, nil, fmt.Errorf("%w: no NIHSS items scored", ErrInsufficientData)
	}
	return total, items, nil
}

func nihss(a interview.Answers) (Result, error) {
	total, items, err := NIHSSTotal(a)
	if err != nil {
		return Result{}, err
	}
	return Result{
		Value:      strconv.Itoa(total),
		Score:      intPtr(total),
		Label:      NIHSSInterpretation(total),
		Components: items,
	}, nil
}

// =========== ABI ===========

type abiRange struct {
	min, max       float64
	interpretation string
	severity       string
}

var abiRanges = [...]abiRange{
	{1.3, math.Inf(1), "Non-compressible (calcified vessels, common in diabetics)", "abnormal"},
	{1.0, 1.3, "Normal", "normal"},
	{0.9, 1.0, "Borderline / Acceptable", "borderline"},
	{0.7, 0.9, "Mild PAD", "mild"},
	{0.5, 0.7, "Moderate PAD, typical claudication range", "moderate"},
	{0.3, 0.5, "Severe PAD, rest pain likely", "severe"},
	{0, 0.3, "Critical limb ischemia, tissue loss risk", "critical"},
}

// InterpretABI returns the severity and interpretation of an ankle-brachial
// index. ok is false for NaN or negative values.
func InterpretABI(abi float64) (severity, interpretation string, ok bool) {
	if math.IsNaN(abi) {
		return "", "", false
	}
	for _, r := range abiRanges {
		if abi >= r.min && abi < r.max {
			return r.severity, r.interpretation, true
		}
	}
	return "", "", false
}

func abi(a interview.Answers) (Result, error) {
	v := a.Number("abi")
	severity, interp, ok := InterpretABI(v)
	if !ok {
		return Result{}, fmt.Errorf("%w: abi", ErrInsufficientData)
	}
	return Result{
		Value:       strconv.FormatFloat(v, 'f', -1, 64),
		Label:       severity,
		Description: interp,
	}, nil
}

// =========== Diabetic foot risk ===========

var diabeticFootFactors = [...]struct {
	id     string
	points int
}{
	{"neuropathy", 1},
	{"deformity", 1},
	{"pad", 1},
	{"prior_ulcer", 2},
	{"prior_amputation", 2},
	{"esrd", 1},
	{"poor_glycemic", 1},
}

var diabeticFootLevels = [...]struct {
	min      int
	level    string
	followUp string
}{
	{5, "Very High", "Every 1-2 months, multidisciplinary care"},
	{3, "High", "Every 1-3 months, custom footwear"},
	{1, "Moderate", "Every 3-6 months, patient education"},
	{0, "Low", "Annual foot exam"},
}

// DiabeticFootRisk sums the checked risk factors and returns the risk level
// and follow-up interval.
func DiabeticFootRisk(a interview.Answers) (points int, level, followUp string) {
	for _, f := range diabeticFootFactors {
		if a.Checked(f.id) {
			points += f.points
		}
	}
	for _, l := range diabeticFootLevels {
		if points >= l.min {
			return points, l.level, l.followUp
		}
	}
	return points, "", ""
}

func diabeticFootRisk(a interview.Answers) (Result, error) {
	points, level, followUp := DiabeticFootRisk(a)
	return Result{
		Value:          strconv.Itoa(points),
		Score:          intPtr(points),
		Label:          level,
		Recommendation: followUp,
	}, nil
}
