package coding

import "github.com/vascintake/vascintake/internal/domain/interview"

// icd10Rules holds the condition-specific diagnosis rows, evaluated in order.
//
// Claudication and rest pain are both downgraded to medium when documented
// together.
// TODO(coding-review): confirm with the vascular coding lead whether the
// claudication/rest-pain downgrade is intended policy.
var icd10Rules = map[interview.ConditionType][]rule{
	interview.ConditionPAD: {
		{
			id:         "pad.gangrene",
			when:       padGangrene,
			codes:      sidedCodes{"I70.261", "I70.262", "I70.263", "I70.269"},
			confidence: ConfidenceHigh,
			reason:     "PAD with gangrene documented ({side})",
		},
		{
			id:         "pad.ulceration",
			when:       padWound,
			codes:      padUlcerCodes{},
			confidence: ConfidenceHigh,
			reason:     "PAD with ulceration of {site} documented ({side})",
		},
		{
			id:         "pad.rest_pain",
			when:       padRestPain,
			codes:      sidedCodes{"I70.221", "I70.222", "I70.223", "I70.229"},
			confidence: ConfidenceHigh,
			downgrade:  padClaudication,
			reason:     "Ischemic rest pain documented ({side})",
		},
		{
			id:         "pad.claudication",
			when:       padClaudication,
			codes:      sidedCodes{"I70.211", "I70.212", "I70.213", "I70.219"},
			confidence: ConfidenceHigh,
			downgrade:  padRestPain,
			reason:     "Intermittent claudication documented ({side})",
		},
	},

	interview.ConditionCarotid: {
		{
			id:         "carotid.stenosis",
			codes:      sidedCodes{"I65.21", "I65.22", "I65.23", "I65.29"},
			confidence: ConfidenceHigh,
			reason:     "Carotid stenosis evaluation ({side})",
		},
		{
			id:         "carotid.tia",
			when:       carotidTIA,
			codes:      fixedCode("G45.9"),
			confidence: ConfidenceHigh,
			reason:     "History of TIA",
		},
		{
			id:         "carotid.amaurosis",
			when:       carotidAmaurosis,
			codes:      fixedCode("G45.3"),
			confidence: ConfidenceHigh,
			reason:     "Transient monocular vision loss reported",
		},
		{
			id:         "carotid.stroke_sequelae",
			when:       allOf(carotidStroke, documented("residual_deficits")),
			codes:      fixedCode("I69.30"),
			confidence: ConfidenceMedium,
			reason:     "Prior stroke with residual deficits",
		},
		{
			id:         "carotid.stroke_history",
			when:       allOf(carotidStroke, not(documented("residual_deficits"))),
			codes:      fixedCode("Z86.73"),
			confidence: ConfidenceMedium,
			reason:     "Prior stroke without documented residual deficits",
		},
	},

	interview.ConditionVenous: {
		{
			id:         "venous.ulcer",
			when:       venousUlcer,
			codes:      sidedCodes{"I83.019", "I83.029", "", "I83.009"},
			confidence: ConfidenceMedium,
			reason:     "Venous ulcer documented ({side})",
		},
		{
			id:         "venous.varicose",
			when:       allOf(venousVaricose, not(venousUlcer)),
			codes:      sidedCodes{"I83.91", "I83.92", "I83.93", "I83.90"},
			confidence: ConfidenceHigh,
			reason:     "Varicose veins documented ({side})",
		},
		{
			id:         "venous.skin_changes",
			when:       venousSkin,
			codes:      fixedCode("I87.2"),
			confidence: ConfidenceHigh,
			reason:     "Venous stasis skin changes documented",
		},
		{
			id:         "venous.insufficiency",
			when:       venousSwelling,
			codes:      fixedCode("I87.2"),
			confidence: ConfidenceMedium,
			reason:     "Chronic venous insufficiency suspected",
		},
	},

	interview.ConditionAAA: {
		{
			id:         "aaa.repair_threshold",
			when:       aaaRepairSize,
			codes:      fixedCode("I71.4"),
			confidence: ConfidenceHigh,
			reason:     "AAA {size}, at or above 5.5 cm repair threshold",
		},
		{
			id:         "aaa.surveillance",
			when:       aaaBelow(5.5),
			codes:      fixedCode("I71.4"),
			confidence: ConfidenceHigh,
			reason:     "AAA {size}, surveillance range",
		},
		{
			id:         "aaa.unsized",
			codes:      fixedCode("I71.4"),
			confidence: ConfidenceMedium,
			reason:     "AAA evaluation, {size}",
		},
		{
			id:         "aaa.iliac",
			when:       checked("iliac_involvement"),
			codes:      fixedCode("I72.3"),
			confidence: ConfidenceMedium,
			reason:     "Iliac artery involvement",
		},
	},

	interview.ConditionWound: {
		{
			id:         "wound.diabetic_foot",
			when:       checked("diabetes"),
			codes:      fixedCode("E11.621"),
			confidence: ConfidenceHigh,
			reason:     "Diabetic foot ulcer",
		},
		{
			id:         "wound.ulcer_bone",
			when:       woundExposed,
			codes:      sidedCodes{"L97.514", "L97.524", "", "L97.504"},
			confidence: ConfidenceMedium,
			reason:     "Non-pressure chronic ulcer with exposed bone or tendon ({side})",
		},
		{
			id:         "wound.ulcer_skin",
			when:       not(woundExposed),
			codes:      sidedCodes{"L97.511", "L97.521", "", "L97.501"},
			confidence: ConfidenceMedium,
			reason:     "Non-pressure chronic ulcer ({side})",
		},
		{
			id:         "wound.cellulitis",
			when:       woundCellulitis,
			codes:      sidedCodes{"L03.115", "L03.116", "", "L03.119"},
			confidence: ConfidenceMedium,
			reason:     "Signs of soft tissue infection ({side})",
		},
	},

	interview.ConditionDialysis: {
		{
			id:         "dialysis.esrd",
			codes:      fixedCode("N18.6"),
			confidence: ConfidenceHigh,
			reason:     "ESRD",
		},
		{
			id:         "dialysis.dependence",
			codes:      fixedCode("Z99.2"),
			confidence: ConfidenceHigh,
			reason:     "Dialysis dependence",
		},
		{
			id:         "dialysis.catheter_dysfunction",
			when:       allOf(dialysisLowFlow, dialysisCatheter),
			codes:      fixedCode("T82.41XA"),
			confidence: ConfidenceMedium,
			reason:     "Low flows through dialysis catheter",
		},
		{
			id:         "dialysis.access_stenosis",
			when:       allOf(dialysisLowFlow, not(dialysisCatheter)),
			codes:      fixedCode("T82.858A"),
			confidence: ConfidenceMedium,
			reason:     "Low access flows, suspected access stenosis",
		},
	},

	interview.ConditionDVT: {
		{
			id:         "dvt.acute",
			codes:      sidedCodes{"I82.401", "I82.402", "I82.403", "I82.409"},
			confidence: ConfidenceHigh,
			reason:     "DVT evaluation ({side})",
		},
		{
			id:         "dvt.pe_history",
			when:       dvtPE,
			codes:      fixedCode("Z86.711"),
			confidence: ConfidenceMedium,
			reason:     "History of pulmonary embolism",
		},
		{
			id:         "dvt.anticoagulation",
			when:       checked("current_anticoagulation"),
			codes:      fixedCode("Z79.01"),
			confidence: ConfidenceHigh,
			reason:     "Currently on anticoagulation",
		},
	},
}

// comorbidityRules run for every condition after the condition rows.
var comorbidityRules = []rule{
	{
		id:         "comorbidity.hypertension",
		when:       checked("hypertension"),
		codes:      fixedCode("I10"),
		confidence: ConfidenceHigh,
		reason:     "Hypertension reported",
	},
	{
		id:         "comorbidity.dyslipidemia",
		when:       checked("high_cholesterol"),
		codes:      fixedCode("E78.5"),
		confidence: ConfidenceHigh,
		reason:     "Dyslipidemia reported",
	},
	{
		id:         "comorbidity.diabetes_hyperglycemia",
		when:       allOf(checked("diabetes"), a1cAtLeast(9)),
		codes:      fixedCode("E11.65"),
		confidence: ConfidenceHigh,
		reason:     "Diabetes reported with poor glycemic control ({a1c})",
	},
	{
		id:         "comorbidity.diabetes",
		when:       allOf(checked("diabetes"), not(a1cAtLeast(9))),
		codes:      fixedCode("E11.9"),
		confidence: ConfidenceHigh,
		reason:     "Diabetes reported",
	},
	{
		id:         "comorbidity.smoker",
		when:       checked("smoking_current"),
		codes:      fixedCode("F17.210"),
		confidence: ConfidenceHigh,
		reason:     "Current smoker",
	},
	{
		id:         "comorbidity.former_smoker",
		when:       allOf(checked("smoking_history"), not(checked("smoking_current"))),
		codes:      fixedCode("Z87.891"),
		confidence: ConfidenceMedium,
		reason:     "Former smoker",
	},
	{
		id:         "comorbidity.cad",
		when:       anyOf(checked("heart_attack", "heart_stents"), documented("cad")),
		codes:      fixedCode("I25.10"),
		confidence: ConfidenceHigh,
		reason:     "Coronary artery disease reported",
	},
}
