package version

import "fmt"

const (
	Version = "v0.0.1"

	colorReset    = "\033[0m"
	colorCyanBold = "\033[36;1m"
)

// asciiArtTpl returns the ASCII art banner of sqlitemulti.
func asciiArtTpl() string {
	asciiArt := `
   _____       ___ __           __  ___      ____  _
  / ___/____ _/ (_) /____      /  |/  /_  __/ / /_(_)
  \__ \/ __ ` + "`" + `/ / / __/ _ \    / /|_/ / / / / / __/ /
 ___/ / /_/ / / / /_/  __/   / /  / / /_/ / / /_/ /
/____/\__, /_/_/\__/\___/   /_/  /_/\__,_/_/\__/_/
        /_/
%s ` + Version + `
SQLite for several threads, optionally in a dedicated process of its own`

	asciiArt = asciiArt[1:]                          // This just removes the first newline character
	asciiArt = colorCyanBold + asciiArt + colorReset // Add color to the ASCII art

	return asciiArt
}

// ServerVersion returns the server version banner of sqlitemultid.
func ServerVersion() string {
	return fmt.Sprintf(asciiArtTpl(), "Server")
}

// CLIVersion returns the CLI version banner of sqlitemulti.
func CLIVersion() string {
	return fmt.Sprintf(asciiArtTpl(), "CLI")
}

// BenchVersion returns the bench version banner of sqlitemultibench.
func BenchVersion() string {
	return fmt.Sprintf(asciiArtTpl(), "Bench")
}
