package coding

import "github.com/vascintake/vascintake/internal/domain/interview"

// cptRules holds the condition-specific procedure rows. The E&M visit code
// is not part of these tables; it is computed by SuggestEMLevel.
var cptRules = map[interview.ConditionType][]rule{
	interview.ConditionPAD: {
		{
			id:         "pad.arterial_duplex",
			codes:      fixedCode("93925"),
			confidence: ConfidenceMedium,
			reason:     "Arterial duplex for PAD evaluation",
		},
		{
			id:         "pad.abi",
			codes:      fixedCode("93922"),
			confidence: ConfidenceMedium,
			reason:     "Ankle-brachial index for PAD staging",
		},
		{
			id:         "pad.revascularization",
			when:       anyOf(padRestPain, padWound, padGangrene),
			codes:      fixedCode("37224"),
			confidence: ConfidenceLow,
			reason:     "Chronic limb-threatening ischemia ({side}); femoral/popliteal revascularization may be indicated",
		},
	},

	interview.ConditionCarotid: {
		{
			id:         "carotid.duplex",
			codes:      fixedCode("93880"),
			confidence: ConfidenceHigh,
			reason:     "Carotid duplex study",
		},
		{
			id:         "carotid.endarterectomy",
			when:       carotidSymptoms,
			codes:      fixedCode("35301"),
			confidence: ConfidenceLow,
			reason:     "Symptomatic carotid disease; endarterectomy candidate if stenosis is 50% or greater",
		},
	},

	interview.ConditionVenous: {
		{
			id:         "venous.duplex_limited",
			when:       unilateral,
			codes:      fixedCode("93971"),
			confidence: ConfidenceMedium,
			reason:     "Venous duplex study, {side} leg",
		},
		{
			id:         "venous.duplex_bilateral",
			when:       not(unilateral),
			codes:      fixedCode("93970"),
			confidence: ConfidenceMedium,
			reason:     "Venous duplex study, bilateral",
		},
	},

	interview.ConditionAAA: {
		{
			id:         "aaa.duplex",
			codes:      fixedCode("93978"),
			confidence: ConfidenceMedium,
			reason:     "Aorta/iliac duplex study",
		},
		{
			id:         "aaa.evar",
			when:       aaaRepairSize,
			codes:      fixedCode("34705"),
			confidence: ConfidenceLow,
			reason:     "AAA {size} meets repair threshold; endovascular repair candidate",
		},
	},

	interview.ConditionWound: {
		{
			id:         "wound.abi",
			codes:      fixedCode("93922"),
			confidence: ConfidenceMedium,
			reason:     "Ankle-brachial index to assess wound perfusion",
		},
		{
			id:         "wound.arterial_duplex",
			when:       anyOf(woundExposed, checked("diabetes")),
			codes:      fixedCode("93925"),
			confidence: ConfidenceMedium,
			reason:     "Arterial duplex for non-healing wound",
		},
	},

	interview.ConditionDialysis: {
		{
			id:         "dialysis.circuit_intervention",
			when:       allOf(dialysisLowFlow, not(dialysisCatheter)),
			codes:      fixedCode("36902"),
			confidence: ConfidenceMedium,
			reason:     "Low access flows; dialysis circuit angiography with angioplasty",
		},
		{
			id:         "dialysis.av_creation",
			when:       dialysisCatheter,
			codes:      fixedCode("36818"),
			confidence: ConfidenceLow,
			reason:     "Catheter-dependent; permanent arteriovenous access creation candidate",
		},
	},

	interview.ConditionDVT: {
		{
			id:         "dvt.duplex_limited",
			when:       unilateral,
			codes:      fixedCode("93971"),
			confidence: ConfidenceHigh,
			reason:     "Venous duplex for DVT evaluation, {side} leg",
		},
		{
			id:         "dvt.duplex_bilateral",
			when:       not(unilateral),
			codes:      fixedCode("93970"),
			confidence: ConfidenceHigh,
			reason:     "Venous duplex for DVT evaluation, bilateral",
		},
	},
}
