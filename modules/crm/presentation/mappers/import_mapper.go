package mappers

import (
	"github.com/dazedniteman/pathpal-crm/modules/crm/domain/aggregates/contact"
	"github.com/dazedniteman/pathpal-crm/modules/crm/domain/dataimport"
	"github.com/dazedniteman/pathpal-crm/modules/crm/presentation/viewmodels"
)

func ContactToListItem(c contact.Contact) *viewmodels.ContactListItem {
	return &viewmodels.ContactListItem{
		ID:        c.ID().String(),
		Name:      c.Name(),
		Email:     c.Email(),
		Instagram: c.Instagram(),
		Followers: c.Followers(),
		Tags:      c.Tags(),
		Bio:       c.Bio(),
		Notes:     c.Notes(),
	}
}

func CandidateToListItem(c *dataimport.Candidate) *viewmodels.ContactListItem {
	return &viewmodels.ContactListItem{
		Name:      c.Name,
		Email:     c.Email,
		Instagram: c.Handle,
		Followers: c.Followers,
		Tags:      c.Tags,
		Bio:       c.Bio,
		Notes:     c.Notes,
	}
}

func SessionToViewModel(s *dataimport.Session) *viewmodels.ImportSession {
	mapping := make(map[string]string, len(s.Mapping()))
	for header, field := range s.Mapping() {
		mapping[header] = field.String()
	}

	vm := &viewmodels.ImportSession{
		ID:         s.ID().String(),
		Stage:      string(s.Stage()),
		Headers:    s.Table().Headers,
		Mapping:    mapping,
		RowCount:   len(s.Table().Rows),
		CleanCount: len(s.Candidates()),
		FailedRows: make([]*viewmodels.FailedRow, 0, len(s.FailedRows())),
		Duplicates: make([]*viewmodels.Duplicate, 0, len(s.Duplicates())),
	}

	for _, fr := range s.FailedRows() {
		vm.FailedRows = append(vm.FailedRows, FailedRowToViewModel(fr))
	}
	for i, d := range s.Duplicates() {
		vm.Duplicates = append(vm.Duplicates, &viewmodels.Duplicate{
			Index:      i,
			Resolution: d.Resolution.String(),
			Existing:   ContactToListItem(d.Existing),
			Incoming:   CandidateToListItem(d.Candidate),
		})
	}
	return vm
}

func FailedRowToViewModel(fr *dataimport.FailedRow) *viewmodels.FailedRow {
	errs := make([]viewmodels.FieldError, 0, len(fr.Errors))
	for _, fe := range fr.Errors {
		errs = append(errs, viewmodels.FieldError{Header: fe.Header, Message: fe.Message})
	}
	return &viewmodels.FailedRow{
		RowIndex: fr.RowIndex,
		Cells:    fr.Cells,
		Errors:   errs,
	}
}
