package lexicon

// defaultRules are the corrections the recognizer needs most often.
var defaultRules = []Rule{
	{"tricky Tony", "Tricky Tony"},
	{"Toby radiation Fox", `Toby "Radiation" Fox`},
	{"Chris", "Kris"},
	{"undertale", "Undertale"},
	{"Delta Rune", "Deltarune"},
	{"Delta room", "Deltarune"},
	{"Delta Road", "Deltarune"},
	{"deltarune", "Deltarune"},
	{"Rossi", "Ralsei"},
	{"Rosie", "Ralsei"},
	{"Noel", "Noelle"},
	{"Burley", "Berdley"},
	{"Berkley", "Berdley"},
	{"frisk", "Frisk"},
	{"Cara", "Chara"},
	{"toriel", "Toriel"},
	{"Sam's", "Sans"},
	{"undyne", "Undyne"},
	{"alphys", "Alphys"},
	{"Elvis", "Alphys"},
	{"asgore", "Asgore"},
	{"the score", "Asgore"},
	{"asriel", "Asriel"},
	{"Lance", "Lancer"},
	{"Anna", "Tenna"},
	{"Hannah", "Tenna"},
	{"Mr antennas", "Mr. (Ant) Tenna's"},
	{"Mr antenna", "Mr. (Ant) Tenna"},
	{"TV time", "TV Time!"},
	{"the roaring", "the Roaring"},
	{"the night", "the Knight"},
	{"the Roaring night", "the Roaring Knight"},
	{"The Roaring night", "the Roaring Knight"},
	{"jackenstein", "Jackenstein"},
	{"Jack and Stein", "Jackenstein"},
}

// DefaultRules returns a copy of the built-in rules.
func DefaultRules() []Rule {
	out := make([]Rule, len(defaultRules))
	copy(out, defaultRules)
	return out
}

// Default returns a lexicon loaded with the built-in rules.
func Default() *Lexicon {
	return New(DefaultRules())
}
