package services

import (
	"context"
	"fmt"

	"google.golang.org/api/docs/v1"

	"petidocs/internal/gdocs"
)

// fakeProvider is an in-memory gdocs.Provider. Folder listings and documents
// are seeded per test; calls record what they were asked to do.
type fakeProvider struct {
	documents map[string]*docs.Document
	children  map[string][]gdocs.FileRef

	getDocumentErr error
	copyErr        error
	replaceErr     error
	listErr        error

	copied       []copyCall
	replacements map[string][]gdocs.Replacement
	created      []string

	nextID int
}

type copyCall struct {
	documentID string
	name       string
	folderID   string
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		documents:    make(map[string]*docs.Document),
		children:     make(map[string][]gdocs.FileRef),
		replacements: make(map[string][]gdocs.Replacement),
	}
}

func (f *fakeProvider) GetDocument(ctx context.Context, documentID string) (*docs.Document, error) {
	if f.getDocumentErr != nil {
		return nil, f.getDocumentErr
	}
	doc, ok := f.documents[documentID]
	if !ok {
		return nil, fmt.Errorf("document %s not found", documentID)
	}
	return doc, nil
}

func (f *fakeProvider) CopyDocument(ctx context.Context, documentID, newName, destFolderID string) (string, error) {
	if f.copyErr != nil {
		return "", f.copyErr
	}
	f.copied = append(f.copied, copyCall{documentID: documentID, name: newName, folderID: destFolderID})
	f.nextID++
	id := fmt.Sprintf("copy-%d", f.nextID)
	f.children[destFolderID] = append(f.children[destFolderID], gdocs.FileRef{ID: id, Name: newName})
	return id, nil
}

func (f *fakeProvider) BatchReplaceText(ctx context.Context, documentID string, replacements []gdocs.Replacement) error {
	if f.replaceErr != nil {
		return f.replaceErr
	}
	f.replacements[documentID] = append(f.replacements[documentID], replacements...)
	return nil
}

func (f *fakeProvider) ListChildren(ctx context.Context, folderID, nameFilter string) ([]gdocs.FileRef, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.children[folderID], nil
}

func (f *fakeProvider) CreateFolder(ctx context.Context, name, parentID string) (string, error) {
	f.nextID++
	id := fmt.Sprintf("folder-%d", f.nextID)
	f.children[parentID] = append(f.children[parentID], gdocs.FileRef{ID: id, Name: name})
	f.created = append(f.created, name)
	return id, nil
}

func (f *fakeProvider) ExportPDF(ctx context.Context, documentID string) ([]byte, error) {
	return []byte("%PDF-fake"), nil
}

// docWithText builds a single-paragraph document body.
func docWithText(text string) *docs.Document {
	return &docs.Document{Body: &docs.Body{Content: []*docs.StructuralElement{
		{Paragraph: &docs.Paragraph{Elements: []*docs.ParagraphElement{
			{TextRun: &docs.TextRun{Content: text}},
		}}},
	}}}
}
