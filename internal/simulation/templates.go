package simulation

// baseTemplates holds the opening sentence candidates per star rating.
var baseTemplates = map[int][]string{
	5: {
		"Better than I expected.",
		"Very happy with this purchase.",
		"Outstanding quality for the price.",
		"Feels like it will last for years.",
		"Design and function are both spot on.",
		"Buying this was the right call.",
		"I would recommend it to my friends.",
	},
	4: {
		"A good product overall.",
		"It met my expectations.",
		"Good value for money.",
		"I am satisfied with it.",
		"Not bad, though there is some room for improvement.",
		"Solid product at its core.",
		"The quality matches the price.",
	},
	3: {
		"It is okay.",
		"Average, nothing more.",
		"Not as good as I had hoped.",
		"There are good points and bad points.",
		"No real problems, but nothing special either.",
		"Quality feels about average.",
		"A few things could be improved.",
	},
	2: {
		"Disappointing.",
		"I was not very satisfied.",
		"I have doubts about the quality.",
		"It would be fine if it were cheaper.",
		"There is a lot of room for improvement.",
		"Not what I was expecting.",
		"Poor value for money.",
	},
	1: {
		"Completely different from what I expected.",
		"I think there is a quality problem.",
		"I regret buying this.",
		"I cannot recommend it.",
		"It needs serious improvement.",
		"A letdown.",
		"Not acceptable at this price.",
	},
}

// Segment keys used for the segment-specific sentence lookup.
const (
	segmentKeyBrand   = "brand"
	segmentKeyDesign  = "design"
	segmentKeyPrice   = "price"
	segmentKeyQuality = "quality"
)

// segmentTemplates holds an optional second sentence per segment and rating.
var segmentTemplates = map[string]map[int][]string{
	segmentKeyBrand: {
		5: {"A brand I can trust.", "You can feel the brand's quality."},
		4: {"It lives up to the brand.", "The brand is worth something here."},
		3: {"Ordinary for this brand.", "Not what I expect from the name."},
		2: {"Underwhelming for this brand.", "The brand value does not come through."},
		1: {"A letdown from this brand.", "The quality does not deserve the brand name."},
	},
	segmentKeyDesign: {
		5: {"The design is wonderful!", "I love how it looks."},
		4: {"The design is nice.", "It looks pretty good."},
		3: {"The design is ordinary.", "Nothing special about the design."},
		2: {"The design feels lacking.", "I wish more thought went into the design."},
		1: {"The design disappointed me.", "I do not like the design."},
	},
	segmentKeyPrice: {
		5: {"Unbeatable quality at this price!", "Amazing value."},
		4: {"Fair quality for the price.", "Good value for money."},
		3: {"The price and quality balance is average.", "It would be fine if it were cheaper."},
		2: {"Not enough quality for the price.", "Poor value for money."},
		1: {"Not acceptable at this price.", "The quality is far too low for the price."},
	},
	segmentKeyQuality: {
		5: {"Excellent build quality!", "Feels like it will last for years."},
		4: {"The quality is good.", "No issues with the quality."},
		3: {"The quality is average.", "I have some doubts about the quality."},
		2: {"The quality fell short.", "I think there is a quality problem."},
		1: {"There is a serious quality problem.", "The quality is far too low."},
	},
}

// segmentAliases maps normalized segment display names to lookup keys.
var segmentAliases = map[string]string{
	"brand":          segmentKeyBrand,
	"brandloyal":     segmentKeyBrand,
	"brandfocused":   segmentKeyBrand,
	"design":         segmentKeyDesign,
	"designlovers":   segmentKeyDesign,
	"designfocused":  segmentKeyDesign,
	"price":          segmentKeyPrice,
	"pricesensitive": segmentKeyPrice,
	"pricefocused":   segmentKeyPrice,
	"quality":        segmentKeyQuality,
	"qualityfocused": segmentKeyQuality,
}

const (
	goodFitSentence             = "The product's features match my taste."
	poorFitSentence             = "The product's features were a bit off from my taste."
	qualitySatisfiedSentence    = "The quality was as expected."
	priceSatisfiedSentence      = "I am happy with it for the price."
	qualityDissatisfiedSentence = "I am unhappy with the quality."
	priceDissatisfiedSentence   = "I am unhappy with it for the price."
)
