package logging

const (
	NameFixtureRunner = "FixtureRunner"
	NameFetcher       = "Fetcher"
	NameInstaller     = "Installer"
)
