package campaign

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"mailpilot/internal/models"
)

// fallbackName is used for lines that carry a bare address.
const fallbackName = "Customer"

var (
	recipientPattern = regexp.MustCompile(`^(.+?)\s*<(.+?)>$`)
	nameCaser        = cases.Title(language.English)
)

// ParseRecipients reads a recipient list, one entry per line, in
// "Name <email>" form. Blank lines and #-comments are skipped. A line that
// does not match the pattern is kept verbatim as the address with a
// fallback name rather than rejected.
func ParseRecipients(r io.Reader, logger zerolog.Logger) []models.Recipient {
	var recipients []models.Recipient

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		match := recipientPattern.FindStringSubmatch(line)
		if match == nil {
			logger.Warn().Str("line", line).Msg("Could not parse recipient name, using fallback")
			recipients = append(recipients, models.Recipient{
				Name:  fallbackName,
				Email: line,
			})
			continue
		}

		recipients = append(recipients, models.Recipient{
			Name:  nameCaser.String(strings.TrimSpace(match[1])),
			Email: strings.TrimSpace(match[2]),
		})
	}

	return recipients
}

// LoadRecipients parses the recipient list file at path.
func LoadRecipients(path string, logger zerolog.Logger) ([]models.Recipient, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open recipient list: %w", err)
	}
	defer func() { _ = f.Close() }()

	return ParseRecipients(f, logger), nil
}
