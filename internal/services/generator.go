package services

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"petidocs/internal/gdocs"
	"petidocs/internal/logger"
)

// GeneratorService produces filled documents from templates: it resolves a
// collision-free name, copies the template into the destination folder and
// runs one batched text substitution pass over the copy.
type GeneratorService struct {
	provider gdocs.Provider
	log      *logger.Logger
	// clientRootFolderID holds the per-client subfolders, one per
	// "{year}-{full name}".
	clientRootFolderID string
}

func NewGeneratorService(provider gdocs.Provider, clientRootFolderID string, log *logger.Logger) *GeneratorService {
	return &GeneratorService{
		provider:           provider,
		log:                log,
		clientRootFolderID: clientRootFolderID,
	}
}

var brazilianDate = regexp.MustCompile(`^\d{2}/\d{2}/\d{4}$`)

// zeroWidthSpace defeats Docs' automatic date reformatting when a value is
// already formatted as DD/MM/YYYY.
const zeroWidthSpace = "​"

// ResolveUniqueName guarantees no two documents in the folder share a final
// name. If baseName (or an already date-prefixed variant of it) exists, the
// name comes back prefixed with today's date; otherwise it is unchanged.
// Callers needing stronger uniqueness append their own timestamp suffix on
// top of this.
func (s *GeneratorService) ResolveUniqueName(ctx context.Context, baseName, folderID string) (string, error) {
	children, err := s.provider.ListChildren(ctx, folderID, baseName)
	if err != nil {
		return "", fmt.Errorf("failed to list folder %s: %w", folderID, err)
	}

	datePrefixed := fmt.Sprintf("%s - %s", time.Now().Format("2006-01-02"), baseName)
	for _, child := range children {
		if child.Name == baseName || child.Name == datePrefixed || isDatePrefixedVariant(child.Name, baseName) {
			return datePrefixed, nil
		}
	}
	return baseName, nil
}

var datePrefix = regexp.MustCompile(`^\d{4}-\d{2}-\d{2} - `)

func isDatePrefixedVariant(name, baseName string) bool {
	m := datePrefix.FindString(name)
	return m != "" && name[len(m):] == baseName
}

// DuplicateAndFill copies the template document into folderID under a
// collision-free name and substitutes every {{key}} (and the triple-brace
// variant {{{key}}}) with its value. Empty values keep their placeholder
// untouched, and keys absent from the document body are harmless no-ops on
// the provider side. Any API failure is recoverable per document: the error
// comes back to the caller, nothing is retried here.
func (s *GeneratorService) DuplicateAndFill(ctx context.Context, templateDocumentID, name, folderID string, substitutions map[string]string) (string, string, error) {
	resolvedName, err := s.ResolveUniqueName(ctx, name, folderID)
	if err != nil {
		return "", "", err
	}

	documentID, err := s.provider.CopyDocument(ctx, templateDocumentID, resolvedName, folderID)
	if err != nil {
		s.log.Error("failed to copy template document",
			"template_document_id", templateDocumentID, "name", resolvedName, "error", err)
		return "", "", err
	}

	replacements := make([]gdocs.Replacement, 0, len(substitutions)*2)
	for key, value := range substitutions {
		if value == "" {
			continue
		}
		if brazilianDate.MatchString(value) {
			value = zeroWidthSpace + value
		}
		// The triple-brace form shows up in templates written against
		// mustache-style escaping; replacing it first keeps the double-brace
		// pass from leaving a stray brace pair behind.
		replacements = append(replacements,
			gdocs.Replacement{Find: fmt.Sprintf("{{{%s}}}", key), Replace: value},
			gdocs.Replacement{Find: fmt.Sprintf("{{%s}}", key), Replace: value},
		)
	}

	if err := s.provider.BatchReplaceText(ctx, documentID, replacements); err != nil {
		s.log.Error("failed to replace placeholders",
			"document_id", documentID, "error", err)
		return "", "", err
	}

	return documentID, gdocs.DocumentLink(documentID), nil
}

// FindOrCreateClientFolder locates the client's "{year}-{name}" subfolder
// under the configured root, creating it when missing. Matching tries the
// exact conventional name first, then a case- and whitespace-insensitive
// substring match on the client name so folders created by hand still hit.
func (s *GeneratorService) FindOrCreateClientFolder(ctx context.Context, clientName string) (string, error) {
	cleanName := collapseWhitespace(clientName)
	if cleanName == "" {
		return "", fmt.Errorf("client name is empty")
	}
	conventional := fmt.Sprintf("%d-%s", time.Now().Year(), cleanName)

	children, err := s.provider.ListChildren(ctx, s.clientRootFolderID, "")
	if err != nil {
		return "", fmt.Errorf("failed to list client folders: %w", err)
	}

	for _, child := range children {
		if child.Name == conventional {
			return child.ID, nil
		}
	}
	needle := strings.ToLower(cleanName)
	for _, child := range children {
		if strings.Contains(strings.ToLower(collapseWhitespace(child.Name)), needle) {
			return child.ID, nil
		}
	}

	folderID, err := s.provider.CreateFolder(ctx, conventional, s.clientRootFolderID)
	if err != nil {
		return "", fmt.Errorf("failed to create client folder %q: %w", conventional, err)
	}
	s.log.Info("created client folder", "name", conventional, "folder_id", folderID)
	return folderID, nil
}

// collapseWhitespace trims and squashes repeated whitespace so near-equal
// names don't spawn near-duplicate folders.
func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
