package cli

import (
	"github.com/AlecAivazis/survey/v2"
)

// confirmAction asks a yes/no question on the terminal. Commands that
// place real orders gate on it unless --yes was passed.
func confirmAction(message string) (bool, error) {
	confirmed := false
	prompt := &survey.Confirm{
		Message: message,
		Default: false,
	}
	if err := survey.AskOne(prompt, &confirmed); err != nil {
		return false, err
	}
	return confirmed, nil
}
