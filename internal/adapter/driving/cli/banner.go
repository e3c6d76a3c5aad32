package cli

import (
	"fmt"

	"github.com/fatih/color"

	"github.com/diillson/aws-macie-tagger-go/pkg/version"
)

// displayWelcomeBanner exibe o banner de boas-vindas com informações de versão.
func displayWelcomeBanner(versionStr string) {
	banner := `
  __  __            _        _____                           
 |  \/  | __ _  ___(_) ___  |_   _|_ _  __ _  __ _  ___ _ __ 
 | |\/| |/ _' |/ __| |/ _ \   | |/ _' |/ _' |/ _' |/ _ \ '__|
 | |  | | (_| | (__| |  __/   | | (_| | (_| | (_| |  __/ |   
 |_|  |_|\__,_|\___|_|\___|   |_|\__,_|\__, |\__, |\___|_|   
                                       |___/ |___/           
        `
	magenta := color.New(color.FgMagenta, color.Bold).SprintFunc()
	blue := color.New(color.FgBlue, color.Bold).SprintFunc()

	fmt.Println(magenta(banner))

	// Obtem a string formatada da versão através do pacote version
	formattedVersion := version.FormatVersion()
	if versionStr != "" && versionStr != version.Version {
		formattedVersion = versionStr
	}
	fmt.Println(blue(fmt.Sprintf("Macie Severity Tagger CLI (v%s)", formattedVersion)))
}
