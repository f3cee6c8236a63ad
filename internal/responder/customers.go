package responder

import (
	"bufio"
	"fmt"
	"os"
	"regexp"
	"strings"
)

var addressPattern = regexp.MustCompile(`<(.+?)>`)

// LoadCustomers reads the customer allow-list, one address per line,
// skipping blanks and #-comments. Addresses are lowercased for
// case-insensitive matching.
func LoadCustomers(path string) (map[string]struct{}, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open customer list: %w", err)
	}
	defer func() { _ = f.Close() }()

	customers := make(map[string]struct{})
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		customers[strings.ToLower(ExtractAddress(line))] = struct{}{}
	}

	return customers, nil
}

// ExtractAddress pulls the bare address out of an optional
// "Display Name <addr>" wrapper.
func ExtractAddress(sender string) string {
	if match := addressPattern.FindStringSubmatch(sender); match != nil {
		return match[1]
	}
	return strings.TrimSpace(sender)
}
