package dataimport_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dazedniteman/pathpal-crm/modules/crm/domain/dataimport"
)

func TestGuessMapping(t *testing.T) {
	cases := map[string]dataimport.ContactField{
		"Name":            dataimport.FieldName,
		"Full Name":       dataimport.FieldName,
		"E-Mail Address":  dataimport.FieldEmail,
		"Instagram":       dataimport.FieldHandle,
		"IG Handle":       dataimport.FieldHandle,
		"Username":        dataimport.FieldHandle,
		"Followers":       dataimport.FieldFollowers,
		"Following Count": dataimport.FieldFollowers,
		"Tags":            dataimport.FieldTags,
		"Labels":          dataimport.FieldTags,
		"Bio":             dataimport.FieldBio,
		"About":           dataimport.FieldBio,
		"Description":     dataimport.FieldBio,
		"Notes":           dataimport.FieldNotes,
		"Comments":        dataimport.FieldNotes,
		"Revenue":         dataimport.FieldIgnore,
	}

	headers := make([]string, 0, len(cases))
	for h := range cases {
		headers = append(headers, h)
	}
	m := dataimport.GuessMapping(headers)
	for header, want := range cases {
		require.Equal(t, want, m[header], "header %q", header)
	}
}

func TestGuessMapping_OrderBeatsOverlap(t *testing.T) {
	m := dataimport.GuessMapping([]string{"Username", "Following"})
	// "username" contains "name" but the handle rule comes first, and
	// "following" contains "ig" but the follower rule comes first.
	require.Equal(t, dataimport.FieldHandle, m["Username"])
	require.Equal(t, dataimport.FieldFollowers, m["Following"])
}

func TestParseField(t *testing.T) {
	require.Equal(t, dataimport.FieldEmail, dataimport.ParseField("email"))
	require.Equal(t, dataimport.FieldHandle, dataimport.ParseField(" Instagram "))
	require.Equal(t, dataimport.FieldIgnore, dataimport.ParseField("bogus"))
}

func TestContactField_String(t *testing.T) {
	require.Equal(t, "instagram", dataimport.FieldHandle.String())
	require.Equal(t, "ignore", dataimport.ContactField(99).String())
}
