package coding

import (
	"sort"
	"sync"
)

// Catalog holds the diagnosis and procedure reference tables. A Catalog is
// never modified after construction and is safe for concurrent use; lookups
// return copies of the stored entries.
type Catalog struct {
	diagnoses  map[string]DiagnosisCodeEntry
	procedures map[string]ProcedureCodeEntry
}

// NewCatalog builds a catalog from the given rows. Later rows replace
// earlier rows with the same code.
func NewCatalog(diagnoses []DiagnosisCodeEntry, procedures []ProcedureCodeEntry) *Catalog {
	c := &Catalog{
		diagnoses:  make(map[string]DiagnosisCodeEntry, len(diagnoses)),
		procedures: make(map[string]ProcedureCodeEntry, len(procedures)),
	}
	for _, d := range diagnoses {
		c.diagnoses[d.Code] = d
	}
	for _, p := range procedures {
		c.procedures[p.Code] = p
	}
	return c
}

var builtinCatalog = sync.OnceValue(func() *Catalog {
	return NewCatalog(builtinDiagnoses, builtinProcedures)
})

// BuiltinCatalog returns the process-wide catalog compiled into the binary.
func BuiltinCatalog() *Catalog {
	return builtinCatalog()
}

// Diagnosis looks up an ICD-10-CM code.
func (c *Catalog) Diagnosis(code string) (DiagnosisCodeEntry, bool) {
	d, ok := c.diagnoses[code]
	return d, ok
}

// Procedure looks up a CPT code.
func (c *Catalog) Procedure(code string) (ProcedureCodeEntry, bool) {
	p, ok := c.procedures[code]
	return p, ok
}

// DiagnosisDescription returns the description of a diagnosis code, or
// "Unknown" when the code is not in the catalog.
func (c *Catalog) DiagnosisDescription(code string) string {
	if d, ok := c.diagnoses[code]; ok {
		return d.Description
	}
	return UnknownDescription
}

// ProcedureDescription returns the description of a procedure code, or
// "Unknown" when the code is not in the catalog.
func (c *Catalog) ProcedureDescription(code string) string {
	if p, ok := c.procedures[code]; ok {
		return p.Description
	}
	return UnknownDescription
}

// RVU returns the relative value weight of a procedure code, 0 when unknown.
func (c *Catalog) RVU(code string) float64 {
	return c.procedures[code].RVU
}

// Diagnoses returns every diagnosis entry ordered by code.
func (c *Catalog) Diagnoses() []DiagnosisCodeEntry {
	out := make([]DiagnosisCodeEntry, 0, len(c.diagnoses))
	for _, d := range c.diagnoses {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

// Procedures returns every procedure entry ordered by code.
func (c *Catalog) Procedures() []ProcedureCodeEntry {
	out := make([]ProcedureCodeEntry, 0, len(c.procedures))
	for _, p := range c.procedures {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

// Len returns the number of diagnosis and procedure entries.
func (c *Catalog) Len() (diagnoses, procedures int) {
	return len(c.diagnoses), len(c.procedures)
}

var builtinDiagnoses = []DiagnosisCodeEntry{
	// PAD: claudication, rest pain
	{"I70.211", "Atherosclerosis of native arteries of extremities with intermittent claudication, right leg", "pad", LateralityRight},
	{"I70.212", "Atherosclerosis of native arteries of extremities with intermittent claudication, left leg", "pad", LateralityLeft},
	{"I70.213", "Atherosclerosis of native arteries of extremities with intermittent claudication, bilateral legs", "pad", LateralityBilateral},
	{"I70.219", "Atherosclerosis of native arteries of extremities with intermittent claudication, unspecified extremity", "pad", LateralityUnspecified},
	{"I70.221", "Atherosclerosis of native arteries of extremities with rest pain, right leg", "pad", LateralityRight},
	{"I70.222", "Atherosclerosis of native arteries of extremities with rest pain, left leg", "pad", LateralityLeft},
	{"I70.223", "Atherosclerosis of native arteries of extremities with rest pain, bilateral legs", "pad", LateralityBilateral},
	{"I70.229", "Atherosclerosis of native arteries of extremities with rest pain, unspecified extremity", "pad", LateralityUnspecified},

	// PAD: ulceration by site
	{"I70.231", "Atherosclerosis of native arteries of right leg with ulceration of thigh", "pad", LateralityRight},
	{"I70.232", "Atherosclerosis of native arteries of right leg with ulceration of calf", "pad", LateralityRight},
	{"I70.233", "Atherosclerosis of native arteries of right leg with ulceration of ankle", "pad", LateralityRight},
	{"I70.234", "Atherosclerosis of native arteries of right leg with ulceration of heel and midfoot", "pad", LateralityRight},
	{"I70.235", "Atherosclerosis of native arteries of right leg with ulceration of other part of foot", "pad", LateralityRight},
	{"I70.238", "Atherosclerosis of native arteries of right leg with ulceration of other part of lower leg", "pad", LateralityRight},
	{"I70.239", "Atherosclerosis of native arteries of right leg with ulceration of unspecified site", "pad", LateralityRight},
	{"I70.241", "Atherosclerosis of native arteries of left leg with ulceration of thigh", "pad", LateralityLeft},
	{"I70.242", "Atherosclerosis of native arteries of left leg with ulceration of calf", "pad", LateralityLeft},
	{"I70.243", "Atherosclerosis of native arteries of left leg with ulceration of ankle", "pad", LateralityLeft},
	{"I70.244", "Atherosclerosis of native arteries of left leg with ulceration of heel and midfoot", "pad", LateralityLeft},
	{"I70.245", "Atherosclerosis of native arteries of left leg with ulceration of other part of foot", "pad", LateralityLeft},
	{"I70.248", "Atherosclerosis of native arteries of left leg with ulceration of other part of lower leg", "pad", LateralityLeft},
	{"I70.249", "Atherosclerosis of native arteries of left leg with ulceration of unspecified site", "pad", LateralityLeft},
	{"I70.25", "Atherosclerosis of native arteries of other extremities with ulceration", "pad", LateralityUnspecified},

	// PAD: gangrene
	{"I70.261", "Atherosclerosis of native arteries of extremities with gangrene, right leg", "pad", LateralityRight},
	{"I70.262", "Atherosclerosis of native arteries of extremities with gangrene, left leg", "pad", LateralityLeft},
	{"I70.263", "Atherosclerosis of native arteries of extremities with gangrene, bilateral legs", "pad", LateralityBilateral},
	{"I70.269", "Atherosclerosis of native arteries of extremities with gangrene, unspecified extremity", "pad", LateralityUnspecified},

	// Carotid
	{"I65.21", "Occlusion and stenosis of right carotid artery", "carotid", LateralityRight},
	{"I65.22", "Occlusion and stenosis of left carotid artery", "carotid", LateralityLeft},
	{"I65.23", "Occlusion and stenosis of bilateral carotid arteries", "carotid", LateralityBilateral},
	{"I65.29", "Occlusion and stenosis of unspecified carotid artery", "carotid", LateralityUnspecified},
	{"G45.3", "Amaurosis fugax", "carotid", LateralityUnspecified},
	{"G45.9", "Transient cerebral ischemic attack, unspecified", "carotid", LateralityUnspecified},
	{"I63.9", "Cerebral infarction, unspecified", "carotid", LateralityUnspecified},
	{"I69.30", "Unspecified sequelae of cerebral infarction", "carotid", LateralityUnspecified},
	{"Z86.73", "Personal history of transient ischemic attack (TIA), and cerebral infarction without residual deficits", "carotid", LateralityUnspecified},

	// Venous
	{"I83.001", "Varicose veins of unspecified lower extremity with ulcer of thigh", "venous", LateralityUnspecified},
	{"I83.009", "Varicose veins of unspecified lower extremity with ulcer of unspecified site", "venous", LateralityUnspecified},
	{"I83.011", "Varicose veins of right lower extremity with ulcer of thigh", "venous", LateralityRight},
	{"I83.019", "Varicose veins of right lower extremity with ulcer of unspecified site", "venous", LateralityRight},
	{"I83.021", "Varicose veins of left lower extremity with ulcer of thigh", "venous", LateralityLeft},
	{"I83.029", "Varicose veins of left lower extremity with ulcer of unspecified site", "venous", LateralityLeft},
	{"I83.90", "Asymptomatic varicose veins of unspecified lower extremity", "venous", LateralityUnspecified},
	{"I83.91", "Asymptomatic varicose veins of right lower extremity", "venous", LateralityRight},
	{"I83.92", "Asymptomatic varicose veins of left lower extremity", "venous", LateralityLeft},
	{"I83.93", "Asymptomatic varicose veins of bilateral lower extremities", "venous", LateralityBilateral},
	{"I87.2", "Venous insufficiency (chronic) (peripheral)", "venous", LateralityUnspecified},

	// DVT / PE
	{"I82.401", "Acute embolism and thrombosis of unspecified deep veins of right lower extremity", "dvt", LateralityRight},
	{"I82.402", "Acute embolism and thrombosis of unspecified deep veins of left lower extremity", "dvt", LateralityLeft},
	{"I82.403", "Acute embolism and thrombosis of unspecified deep veins of lower extremity, bilateral", "dvt", LateralityBilateral},
	{"I82.409", "Acute embolism and thrombosis of unspecified deep veins of unspecified lower extremity", "dvt", LateralityUnspecified},
	{"I82.411", "Acute embolism and thrombosis of right femoral vein", "dvt", LateralityRight},
	{"I82.412", "Acute embolism and thrombosis of left femoral vein", "dvt", LateralityLeft},
	{"I87.011", "Postthrombotic syndrome with ulcer of right lower extremity", "dvt", LateralityRight},
	{"I87.012", "Postthrombotic syndrome with ulcer of left lower extremity", "dvt", LateralityLeft},
	{"Z86.711", "Personal history of pulmonary embolism", "dvt", LateralityUnspecified},
	{"Z86.718", "Personal history of other venous thrombosis and embolism", "dvt", LateralityUnspecified},
	{"Z79.01", "Long term (current) use of anticoagulants", "dvt", LateralityUnspecified},

	// AAA
	{"I71.3", "Abdominal aortic aneurysm, ruptured", "aaa", LateralityUnspecified},
	{"I71.4", "Abdominal aortic aneurysm, without rupture", "aaa", LateralityUnspecified},
	{"I71.6", "Thoracoabdominal aortic aneurysm, without rupture", "aaa", LateralityUnspecified},
	{"I72.3", "Aneurysm of iliac artery", "aaa", LateralityUnspecified},

	// Wound / diabetic foot
	{"E11.621", "Type 2 diabetes mellitus with foot ulcer", "wound", LateralityUnspecified},
	{"E11.622", "Type 2 diabetes mellitus with other skin ulcer", "wound", LateralityUnspecified},
	{"L97.501", "Non-pressure chronic ulcer of other part of unspecified foot limited to breakdown of skin", "wound", LateralityUnspecified},
	{"L97.504", "Non-pressure chronic ulcer of other part of unspecified foot with necrosis of bone", "wound", LateralityUnspecified},
	{"L97.511", "Non-pressure chronic ulcer of other part of right foot limited to breakdown of skin", "wound", LateralityRight},
	{"L97.514", "Non-pressure chronic ulcer of other part of right foot with necrosis of bone", "wound", LateralityRight},
	{"L97.521", "Non-pressure chronic ulcer of other part of left foot limited to breakdown of skin", "wound", LateralityLeft},
	{"L97.524", "Non-pressure chronic ulcer of other part of left foot with necrosis of bone", "wound", LateralityLeft},
	{"L03.115", "Cellulitis of right lower limb", "wound", LateralityRight},
	{"L03.116", "Cellulitis of left lower limb", "wound", LateralityLeft},
	{"L03.119", "Cellulitis of unspecified part of limb", "wound", LateralityUnspecified},

	// Dialysis access
	{"N18.6", "End stage renal disease", "dialysis", LateralityUnspecified},
	{"Z99.2", "Dependence on renal dialysis", "dialysis", LateralityUnspecified},
	{"T82.41XA", "Breakdown (mechanical) of vascular dialysis catheter, initial encounter", "dialysis", LateralityUnspecified},
	{"T82.49XA", "Other complication of vascular dialysis catheter, initial encounter", "dialysis", LateralityUnspecified},
	{"T82.858A", "Stenosis of other vascular prosthetic devices, implants and grafts, initial encounter", "dialysis", LateralityUnspecified},

	// Comorbidities
	{"I10", "Essential (primary) hypertension", CategoryComorbidity, LateralityUnspecified},
	{"E78.5", "Hyperlipidemia, unspecified", CategoryComorbidity, LateralityUnspecified},
	{"E11.9", "Type 2 diabetes mellitus without complications", CategoryComorbidity, LateralityUnspecified},
	{"E11.65", "Type 2 diabetes mellitus with hyperglycemia", CategoryComorbidity, LateralityUnspecified},
	{"F17.210", "Nicotine dependence, cigarettes, uncomplicated", CategoryComorbidity, LateralityUnspecified},
	{"Z87.891", "Personal history of nicotine dependence", CategoryComorbidity, LateralityUnspecified},
	{"E66.01", "Morbid (severe) obesity due to excess calories", CategoryComorbidity, LateralityUnspecified},
	{"I25.10", "Atherosclerotic heart disease of native coronary artery without angina pectoris", CategoryComorbidity, LateralityUnspecified},
}

var builtinProcedures = []ProcedureCodeEntry{
	// Evaluation and management
	{"99202", "Office visit, new patient, straightforward MDM", CategoryEM, 0.93},
	{"99203", "Office visit, new patient, low complexity MDM", CategoryEM, 1.6},
	{"99204", "Office visit, new patient, moderate complexity MDM", CategoryEM, 2.6},
	{"99205", "Office visit, new patient, high complexity MDM", CategoryEM, 3.5},
	{"99211", "Office visit, established patient, minimal", CategoryEM, 0.18},
	{"99212", "Office visit, established patient, straightforward MDM", CategoryEM, 0.7},
	{"99213", "Office visit, established patient, low complexity MDM", CategoryEM, 1.3},
	{"99214", "Office visit, established patient, moderate complexity MDM", CategoryEM, 1.92},
	{"99215", "Office visit, established patient, high complexity MDM", CategoryEM, 2.8},

	// Catheter placement
	{"36245", "Selective catheter placement, arterial system, first order", "catheter", 4.13},
	{"36246", "Selective catheter placement, arterial system, second order", "catheter", 5.32},

	// Lower extremity revascularization
	{"37220", "Revascularization, iliac artery, initial vessel; transluminal angioplasty", "revascularization", 12.54},
	{"37221", "Revascularization, iliac artery, initial vessel; with stent", "revascularization", 14.67},
	{"37224", "Revascularization, femoral/popliteal artery; transluminal angioplasty", "revascularization", 13.87},
	{"37225", "Revascularization, femoral/popliteal artery; with atherectomy", "revascularization", 15.23},
	{"37226", "Revascularization, femoral/popliteal artery; with stent", "revascularization", 16.45},
	{"37227", "Revascularization, femoral/popliteal artery; with stent and atherectomy", "revascularization", 18.12},
	{"37228", "Revascularization, tibial/peroneal artery; transluminal angioplasty", "revascularization", 15.34},
	{"37229", "Revascularization, tibial/peroneal artery; with atherectomy", "revascularization", 17.56},
	{"37230", "Revascularization, tibial/peroneal artery; with stent", "revascularization", 18.78},

	// Stents
	{"37236", "Transcatheter placement of intravascular stent, initial artery", "stent", 11.23},
	{"37238", "Transcatheter placement of intravascular stent, each additional artery", "stent", 5.67},

	// Open surgery
	{"35301", "Thromboendarterectomy, carotid, vertebral, subclavian, by neck incision", "endarterectomy", 25.34},
	{"35371", "Thromboendarterectomy, common femoral", "endarterectomy", 22.45},
	{"35556", "Bypass graft, with vein; femoral-popliteal", "bypass", 28.67},
	{"35566", "Bypass graft, with vein; femoral-anterior tibial, posterior tibial, peroneal artery", "bypass", 32.45},
	{"35583", "In-situ vein bypass; femoral-popliteal", "bypass", 30.12},
	{"34705", "Endovascular repair of infrarenal aorta and/or iliac arteries; aorto-bi-iliac", "aneurysm-repair", 29.58},

	// Dialysis access
	{"36818", "Arteriovenous anastomosis, open; by upper arm cephalic vein transposition", "dialysis-access", 12.34},
	{"36819", "Arteriovenous anastomosis, open; by upper arm basilic vein transposition", "dialysis-access", 14.56},
	{"36901", "Introduction of needle/catheter, dialysis circuit, with diagnostic angiography", "dialysis-access", 9.87},
	{"36902", "Dialysis circuit angiography with transluminal balloon angioplasty, peripheral segment", "dialysis-access", 12.34},

	// Noninvasive vascular diagnostics
	{"93880", "Duplex scan of extracranial arteries; complete bilateral study", "diagnostic", 3.14},
	{"93922", "Limited bilateral noninvasive physiologic studies of lower extremity arteries (ABI)", "diagnostic", 2.86},
	{"93925", "Duplex scan of lower extremity arteries; complete bilateral study", "diagnostic", 3.07},
	{"93926", "Duplex scan of lower extremity arteries; unilateral or limited study", "diagnostic", 1.93},
	{"93970", "Duplex scan of extremity veins; complete bilateral study", "diagnostic", 2.56},
	{"93971", "Duplex scan of extremity veins; unilateral or limited study", "diagnostic", 1.89},
	{"93978", "Duplex scan of aorta, inferior vena cava, iliac vasculature; complete study", "diagnostic", 2.78},
}
