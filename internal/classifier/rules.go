package classifier

import (
	"regexp"

	"github.com/jonesrussell/streetcode-ingestor/internal/domain"
)

// Confidence score constants.
const (
	confidenceExclusion = 0.95
	confidenceDefault   = 0.5

	confidenceHighViolent   = 0.95
	confidenceMediumViolent = 0.90
	confidenceAssault       = 0.85
	confidenceFoundDead     = 0.80
	confidenceProperty      = 0.85
	confidenceArson         = 0.80
	confidenceDrug          = 0.90
	confidenceStrong        = 0.85
	confidenceModerate      = 0.80
	confidenceWeak          = 0.75
	confidenceFaint         = 0.70

	// downgradeRatio is applied once per downgrade rule that fires.
	downgradeRatio = 0.7
)

// rule pairs a case-insensitive title pattern with its weight and crime type.
type rule struct {
	pattern    *regexp.Regexp
	confidence float64
	crimeType  string
}

// bank is an ordered list of rules evaluated together.
type bank []rule

func ci(expr string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)` + expr)
}

func violent(expr string, conf float64) rule {
	return rule{pattern: ci(expr), confidence: conf, crimeType: domain.CrimeTypeViolent}
}

func property(expr string, conf float64) rule {
	return rule{pattern: ci(expr), confidence: conf, crimeType: domain.CrimeTypeProperty}
}

func drug(expr string, conf float64) rule {
	return rule{pattern: ci(expr), confidence: conf, crimeType: domain.CrimeTypeDrug}
}

func justice(expr string, conf float64) rule {
	return rule{pattern: ci(expr), confidence: conf, crimeType: domain.CrimeTypeCriminalJustice}
}

// Navigational, account, job-listing and generic section titles.
var exclusionPatterns = []*regexp.Regexp{
	ci(`^(Register|Sign up|Login|Subscribe)`),
	ci(`^(Listings? By|Directory|Careers|Jobs)`),
	ci(`(Part.Time|Full.Time|Hiring|\bPosition\b)`),
	ci(`^Local (Sports|Events|Weather)$`),
}

var violentBank = bank{
	violent(`(murder|homicide|manslaughter)`, confidenceHighViolent),
	violent(`(shooting|shootout|shot dead|shots? fired|fatally shot|gunfire)`, confidenceMediumViolent),
	violent(`(stab|stabbing|stabbed)`, confidenceMediumViolent),
	violent(`(assault|assaulting|assaulted).*(charge[sd]?|arrest|police|pleads?|guilty|sentence|Crown)`, confidenceAssault),
	violent(`(charge[sd]?|arrest|police|pleads?|guilty|convicted).*(assault|assaulting|assaulted)`, confidenceAssault),
	violent(`(sexual assault|sexual exploitation|child exploitation|child sexual|rape|sex assault)`, confidenceMediumViolent),
	violent(`(found dead|human remains)`, confidenceFoundDead),
}

var propertyBank = bank{
	property(`(theft|stolen|shoplifting).*(police|arrest)`, confidenceProperty),
	property(`(police|arrest).*(theft|stolen|shoplifting)`, confidenceProperty),
	property(`(burglary|break.in)`, confidenceProperty),
	property(`arson`, confidenceArson),
	property(`\$[\d,]+.*(stolen|theft)`, confidenceProperty),
}

var drugBank = bank{
	drug(`(drug bust|drug raid|drug seizure)`, confidenceDrug),
	drug(`(fentanyl|cocaine|heroin).*(seiz|arrest|traffick)`, confidenceDrug),
}

// supplementalBank widens coverage to headlines the core banks miss:
// weapons, impaired driving, court process and manhunts.
var supplementalBank = bank{
	violent(`(assaulted|assaults)\b`, confidenceModerate),
	violent(`(knife|machete|sword) attack`, confidenceStrong),
	violent(`\bkills (wife|husband|partner|child|son|daughter|mother|father)\b`, confidenceMediumViolent),
	violent(`car attack|vehicle attack|vehicular attack`, confidenceStrong),
	violent(`attack.*(suspect|arrested|police|charged)`, confidenceModerate),
	violent(`(suspect|accused) arrested`, confidenceModerate),
	violent(`(firearm|gun|rifle|shotgun).*(threat|recovered|found|seized)`, confidenceModerate),
	violent(`(threat|recovered|found|seized).*(firearm|gun|rifle|shotgun)`, confidenceModerate),
	violent(`(intimate.partner|domestic) (violence|assault)`, confidenceStrong),
	violent(`(kidnap|abduct)`, confidenceStrong),
	violent(`(weapons?|firearms?) (charge|offence)`, confidenceModerate),
	violent(`(threatened|threatening).*(death|kill|weapon|knife)`, confidenceModerate),

	property(`(robbery|robbed)`, confidenceStrong),
	property(`(stolen|stole)`, confidenceWeak),
	property(`(fraud|embezzlement|corruption)`, confidenceWeak),
	property(`(mischief|vandalis)`, confidenceWeak),

	drug(`(drug offence|drug charge|drug trafficking|drug smuggling)`, confidenceStrong),
	drug(`(cannabis|marijuana|meth|methamphetamine).*(seiz|arrest|charge[sd]?|traffick)`, confidenceStrong),
	drug(`(seiz|confiscat).*(fentanyl|cocaine|heroin|cannabis|drugs)`, confidenceStrong),
	drug(`(drugs?|guns?).*(seizure|seized|confiscated)`, confidenceStrong),
	drug(`(explosive|explosives).*(drugs|guns|weapons)`, confidenceStrong),
	drug(`(pot|marijuana|cannabis|weed).*(police|catch|arrest|charge)`, confidenceModerate),
	drug(`(police|catch|arrest).*(pot|marijuana|smoking)`, confidenceModerate),

	justice(`(police|officer|OPP|RCMP|SIU|cops).*arrest`, confidenceModerate),
	justice(`arrest.*(police|officer|OPP|RCMP|cops)`, confidenceModerate),
	justice(`charged (with|after)`, confidenceModerate),
	justice(`impaired (driv|operat)`, confidenceModerate),
	justice(`impaired.*(police|arrest|charge[sd]?|caught)`, confidenceModerate),
	justice(`(police|arrest|charge[sd]?|caught).*impaired`, confidenceModerate),
	justice(`sentenced.*(years|prison|jail|penitentiary)`, confidenceWeak),
	justice(`convicted of`, confidenceWeak),
	justice(`(flee|fled|fleeing).*(police|scene|officer)`, confidenceWeak),
	justice(`(wanted|warrant).*(police|arrest|RCMP|OPP)`, confidenceWeak),
	justice(`(police|RCMP|OPP).*(wanted|warrant)`, confidenceWeak),
	justice(`pleads? (not )?guilty`, confidenceModerate),
	justice(`(face[sd]?|facing) (charge[sd]?|consequences|penalties)`, confidenceWeak),
	justice(`(prohibited|suspended).*(driver|driving)`, confidenceWeak),
	justice(`(dangerous driving|stunt driving)`, confidenceWeak),
	justice(`(pre-trial|pretrial) detention`, confidenceWeak),
	justice(`doesn.t fool (cops|police|officer)`, confidenceFaint),
	justice(`(could face|may face) charge`, confidenceFaint),
	justice(`manhunt`, confidenceModerate),
	justice(`escaped (inmate|prisoner|convict|offender)`, confidenceModerate),
	justice(`wanted.*(caught|found|arrested|hiding|apprehended)`, confidenceModerate),
	justice(`in custody`, confidenceWeak),
	justice(`prison (term|sentence)`, confidenceWeak),
	justice(`arrested after`, confidenceWeak),
	justice(`(suspect|accused).*(bought|purchased|had).*(rifle|gun|weapon|firearm)`, confidenceWeak),
	justice(`intercept.*(traffick|smuggl|drugs|fentanyl|cocaine)`, confidenceModerate),
}

// crimeBanks is the evaluation order for step two of classification.
var crimeBanks = []bank{violentBank, propertyBank, drugBank, supplementalBank}

// Foreign jurisdictions and leaders that make a story peripheral to local crime.
var internationalPatterns = []*regexp.Regexp{
	ci(`(Minneapolis|U\.S\.|American|Mexico|European|Israel)`),
	ci(`(Malaysian|Malaysia|1MDB)`),
	ci(`(Nigerian|Nigeria|Kenyan|Kenya)`),
	ci(`(Norway|Norwegian|Oslo)`),
	ci(`(Venezuela|Venezuelan|Maduro)`),
	ci(`Former .* leader`),
}

// Awareness, support and policy framing.
var contextDowngradePatterns = []*regexp.Regexp{
	ci(`awareness (week|month|campaign|day)`),
	ci(`(support|resources?) for (survivors|victims)`),
	ci(`\blegal (advice|support|aid|help)\b`),
	ci(`(address|addresses|addressing).*(epidemic|crisis)`),
	ci(`(responds?|responding) to .*(every|all) (call|report)`),
}

var justicePattern = ci(`(charged|arrest|sentenced|trial|convicted|pleads? guilty)`)
