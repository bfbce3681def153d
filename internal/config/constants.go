package config

// Extensions of the module interchange files produced by the parser.
var ModuleFileExtensions = []string{".vl.yaml", ".vl.yml"}

// ProjectFileNames are the recognized project configuration file names.
var ProjectFileNames = []string{"vellum.yaml", "vellum.yml"}

// Built-in type names
const (
	IntTypeName              = "Int"
	ByteArrayTypeName        = "ByteArray"
	StringTypeName           = "String"
	BoolTypeName             = "Bool"
	VoidTypeName             = "Void"
	DataTypeName             = "Data"
	ListTypeName             = "List"
	OptionTypeName           = "Option"
	PRNGTypeName             = "PRNG"
	OrderingTypeName         = "Ordering"
	MillerLoopResultTypeName = "MillerLoopResult"
	G1ElementTypeName        = "G1Element"
	G2ElementTypeName        = "G2Element"
	FuzzerTypeName           = "Fuzzer"
	SamplerTypeName          = "Sampler"
)

// Built-in constructor names
const (
	TrueCtorName  = "True"
	FalseCtorName = "False"
	SomeCtorName  = "Some"
	NoneCtorName  = "None"
	VoidCtorName  = "Void"
	LessCtorName  = "Less"
	EqualCtorName = "Equal"
	GreatCtorName = "Greater"
)

// Validator handler names
const (
	SpendPurpose    = "spend"
	MintPurpose     = "mint"
	WithdrawPurpose = "withdraw"
	PublishPurpose  = "publish"
	VotePurpose     = "vote"
	ProposePurpose  = "propose"
	FallbackName    = "else"
)

// Purposes lists the recognized on-chain purposes in declaration order,
// followed by the fallback handler name.
var Purposes = []string{
	SpendPurpose,
	MintPurpose,
	WithdrawPurpose,
	PublishPurpose,
	VotePurpose,
	ProposePurpose,
	FallbackName,
}

// purposeArity is the number of arguments a handler takes once the
// validator's shared parameters are stripped off.
var purposeArity = map[string]int{
	SpendPurpose:    4, // datum, redeemer, output reference, transaction
	MintPurpose:     3, // redeemer, policy id, transaction
	WithdrawPurpose: 3, // redeemer, credential, transaction
	PublishPurpose:  3, // redeemer, certificate, transaction
	VotePurpose:     4, // redeemer, voter, governance action id, transaction
	ProposePurpose:  3, // redeemer, proposal procedure, transaction
	FallbackName:    1, // script context
}

// PurposeArity returns the arity required by a handler name.
func PurposeArity(name string) (int, bool) {
	n, ok := purposeArity[name]
	return n, ok
}

// IsPurpose reports whether name is a recognized handler name,
// the fallback included.
func IsPurpose(name string) bool {
	_, ok := purposeArity[name]
	return ok
}

// HandlerName is the name a validator handler is registered under.
func HandlerName(validator, handler string) string {
	return validator + "." + handler
}

// DiscardPrefix marks argument and pattern names that are never used.
const DiscardPrefix = "_"
