package dataimport_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dazedniteman/pathpal-crm/modules/crm/domain/dataimport"
)

func normalizeOne(t *testing.T, headers []string, row []string, m dataimport.Mapping) *dataimport.Candidate {
	t.Helper()
	c, errs := dataimport.Normalize(headers, row, 0, m)
	require.Empty(t, errs)
	require.NotNil(t, c)
	return c
}

func TestNormalize_HappyPath(t *testing.T) {
	headers := []string{"name", "email", "followers", "tags"}
	m := dataimport.GuessMapping(headers)
	c := normalizeOne(t, headers, []string{" Alice ", "ALICE@Example.COM", "1.2k", "vip, beauty, vip"}, m)

	require.Equal(t, "Alice", c.Name)
	require.Equal(t, "alice@example.com", c.Email)
	require.NotNil(t, c.Followers)
	require.Equal(t, int64(1200), *c.Followers)
	require.Equal(t, []string{"vip", "beauty"}, c.Tags)
}

func TestNormalize_MissingNameAndEmail(t *testing.T) {
	headers := []string{"name", "email"}
	m := dataimport.GuessMapping(headers)
	c, errs := dataimport.Normalize(headers, []string{"", ""}, 3, m)
	require.Nil(t, c)
	require.Equal(t, []dataimport.FieldError{
		{Header: "name", Message: "Name is required."},
		{Header: "email", Message: "Email is required for this row."},
	}, errs)
}

func TestNormalize_InvalidEmailFormat(t *testing.T) {
	headers := []string{"name", "email"}
	m := dataimport.GuessMapping(headers)
	_, errs := dataimport.Normalize(headers, []string{"Alice", "not-an-address"}, 0, m)
	require.Equal(t, []dataimport.FieldError{{Header: "email", Message: "Invalid email format."}}, errs)
}

func TestNormalize_EmailNotFoundSentinelWaivesRequirement(t *testing.T) {
	headers := []string{"name", "email"}
	m := dataimport.GuessMapping(headers)
	for _, sentinel := range []string{"Not Found", "n/a", "NA", "none", "no email", "-"} {
		c := normalizeOne(t, headers, []string{"Alice", sentinel}, m)
		require.Empty(t, c.Email, "sentinel %q", sentinel)
	}
}

func TestNormalize_MultipleEmailsOverflowToNotes(t *testing.T) {
	headers := []string{"name", "email", "notes"}
	m := dataimport.GuessMapping(headers)
	c := normalizeOne(t, headers, []string{"Alice", "a@b.co; second@b.co third@b.co", "existing note"}, m)

	require.Equal(t, "a@b.co", c.Email)
	require.Equal(t, "Other emails: second@b.co, third@b.co\nexisting note", c.Notes)
}

func TestNormalize_InstagramURLBecomesHandle(t *testing.T) {
	headers := []string{"name", "email", "instagram"}
	m := dataimport.GuessMapping(headers)

	for input, want := range map[string]string{
		"https://instagram.com/alice":           "@alice",
		"https://www.instagram.com/alice/?hl=en": "@alice",
		"instagram.com/alice#top":               "@alice",
		"@alice":                                "@alice",
		"alice":                                 "alice",
	} {
		c := normalizeOne(t, headers, []string{"Alice", "a@b.co", input}, m)
		require.Equal(t, want, c.Handle, "input %q", input)
	}
}

func TestNormalize_FollowerCounts(t *testing.T) {
	headers := []string{"name", "email", "followers"}
	m := dataimport.GuessMapping(headers)

	counts := map[string]int64{
		"1,234":  1234,
		"12k":    12000,
		"1.5K":   1500,
		"2m":     2000000,
		"3.25 M": 3250000,
		"987":    987,
	}
	for input, want := range counts {
		c := normalizeOne(t, headers, []string{"Alice", "a@b.co", input}, m)
		require.NotNil(t, c.Followers, "input %q", input)
		require.Equal(t, want, *c.Followers, "input %q", input)
	}

	// ParseFloat accepts these, but they are not follower counts.
	for _, input := range []string{"", "unknown", "k", "nan", "inf", "+Inf", "-inf"} {
		c := normalizeOne(t, headers, []string{"Alice", "a@b.co", input}, m)
		require.Nil(t, c.Followers, "input %q", input)
	}
}

func TestNormalize_LastColumnWinsForSingleValuedFields(t *testing.T) {
	headers := []string{"name", "alt name", "email"}
	m := dataimport.Mapping{
		"name":     dataimport.FieldName,
		"alt name": dataimport.FieldName,
		"email":    dataimport.FieldEmail,
	}
	c := normalizeOne(t, headers, []string{"First", "Second", "a@b.co"}, m)
	require.Equal(t, "Second", c.Name)
}

func TestNormalize_FreeTextFieldsConcatenate(t *testing.T) {
	headers := []string{"name", "email", "bio", "about"}
	m := dataimport.Mapping{
		"name":  dataimport.FieldName,
		"email": dataimport.FieldEmail,
		"bio":   dataimport.FieldBio,
		"about": dataimport.FieldBio,
	}
	c := normalizeOne(t, headers, []string{"Alice", "a@b.co", "line one", "line two"}, m)
	require.Equal(t, "line one\nline two", c.Bio)
}

func TestNormalize_Idempotent(t *testing.T) {
	headers := []string{"name", "email", "instagram", "followers"}
	m := dataimport.GuessMapping(headers)
	row := []string{"Alice", "ALICE@Example.com", "https://instagram.com/alice", "1.2k"}

	first := normalizeOne(t, headers, row, m)
	// Re-normalizing the already-coerced values must not change them.
	again := normalizeOne(t, headers, []string{first.Name, first.Email, first.Handle, "1200"}, m)
	require.Equal(t, first.Name, again.Name)
	require.Equal(t, first.Email, again.Email)
	require.Equal(t, first.Handle, again.Handle)
	require.Equal(t, *first.Followers, *again.Followers)
}
