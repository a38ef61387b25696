// Package templates provides email template components
package templates

import "fmt"

type ButtonProps struct {
	Text            string
	URL             string
	BackgroundColor string
	TextColor       string
}

func GetButton(props ButtonProps) string {
	backgroundColor := props.BackgroundColor
	if backgroundColor == "" {
		backgroundColor = "#1a1a1a"
	}
	textColor := props.TextColor
	if textColor == "" {
		textColor = "#ffffff"
	}

	return fmt.Sprintf(`<table role="presentation" border="0" cellpadding="0" cellspacing="0" style="margin-bottom: 16px;">
      <tbody>
        <tr>
          <td style="border-radius: 4px; background-color: %s;">
            <a href="%s" target="_blank" style="display: inline-block; padding: 12px 24px; font-family: Helvetica, sans-serif; font-size: 16px; color: %s; text-decoration: none; background-color: %s; border-radius: 4px;">%s</a>
          </td>
        </tr>
      </tbody>
    </table>`, backgroundColor, props.URL, textColor, backgroundColor, props.Text)
}

func GetParagraph(text string) string {
	return fmt.Sprintf(`<p style="font-family: Helvetica, sans-serif; font-size: 16px; font-weight: normal; margin: 0; margin-bottom: 16px;">%s</p>`, text)
}

type EmailLayoutProps struct {
	Content string
}

func GetEmailLayout(props EmailLayoutProps) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
  <body style="background-color: #f6f6f6; font-family: Helvetica, sans-serif; margin: 0; padding: 0;">
    <table role="presentation" border="0" cellpadding="0" cellspacing="0" width="100%%" style="background-color: #f6f6f6;">
      <tbody>
        <tr>
          <td>&nbsp;</td>
          <td style="display: block; max-width: 580px; margin: 0 auto; padding: 24px; background-color: #ffffff; border-radius: 4px;">
            %s
          </td>
          <td>&nbsp;</td>
        </tr>
      </tbody>
    </table>
  </body>
</html>`, props.Content)
}
