package templates

import (
	"bytes"
	"html/template"
	"log"
)

// NotifyEmailProps holds the dynamic data for a signup notification
type NotifyEmailProps struct {
	Name      string
	BookTitle string
	StoreURL  string
}

// notifyGreetingTmpl escapes the user-provided name
var notifyGreetingTmpl = template.Must(template.New("notifyGreeting").Parse("Hi {{.}},"))

// GetNotifyEmailContent generates the HTML content for a signup notification
func GetNotifyEmailContent(props NotifyEmailProps) string {
	name := props.Name
	if name == "" {
		name = "there"
	}

	storeURL := props.StoreURL
	if storeURL == "" {
		storeURL = "https://bookstore.paperbridge.dev"
	}

	var greeting bytes.Buffer
	if err := notifyGreetingTmpl.Execute(&greeting, name); err != nil {
		log.Printf("ERROR: Failed to render notification greeting: %v", err)
		greeting.Reset()
		greeting.WriteString("Hi there,")
	}

	content := GetParagraph(greeting.String()) +
		GetParagraph("Thanks for signing up. We'll let you know about new arrivals picked for your reading tastes.")

	if props.BookTitle != "" {
		content += GetParagraph("We noticed you were browsing <strong>" + template.HTMLEscapeString(props.BookTitle) + "</strong> -- it's waiting for you.")
	}

	content += GetButton(ButtonProps{
		Text: "Back to the store",
		URL:  storeURL,
	})

	return content
}
