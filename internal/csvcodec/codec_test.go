package csvcodec

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jask/cortracker/internal/cor"
	"github.com/jask/cortracker/internal/testdata"
)

var fixedNow = time.Date(2024, 6, 1, 9, 30, 0, 0, time.UTC)

func TestParseLine(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want []string
	}{
		{`a,b,c`, []string{"a", "b", "c"}},
		{`a,"b, c",d`, []string{"a", "b, c", "d"}},
		{`"He said ""ok""",x,y`, []string{`He said "ok"`, "x", "y"}},
		{`"",a`, []string{"", "a"}},
		{``, []string{""}},
		{`a,,`, []string{"a", "", ""}},
		{`"a|b","c""d"`, []string{"a|b", `c"d`}},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, ParseLine(tc.in), tc.in)
	}
}

func TestEncodeEmptyIsHeaderOnly(t *testing.T) {
	t.Parallel()

	out := Encode(nil)
	require.Equal(t, "corNumber,title,subcontractor,trade,submittedAt,dueAt,status,priority,amount,ownerRef,rfi,tags,notes", out)
	require.True(t, strings.HasPrefix(Encode([]cor.Record{}), "corNumber,"))
}

func TestEncodeQuotesEveryField(t *testing.T) {
	t.Parallel()

	sub := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	r := cor.Record{
		CORNumber:     "COR-1",
		Title:         `Thing, "big"`,
		Subcontractor: "Sub A",
		Trade:         "Electrical",
		SubmittedAt:   &sub,
		Status:        cor.StatusSubmitted,
		Priority:      cor.PriorityHigh,
		Amount:        1000.5,
		OwnerRef:      "PCO-1",
		Tags:          []string{"A", "B"},
		Notes:         "Line1\nLine2",
	}
	out := Encode([]cor.Record{r})
	lines := strings.Split(out, "\n")
	require.Len(t, lines, 2)
	require.Equal(t,
		`"COR-1","Thing, ""big""","Sub A","Electrical","2024-01-10T00:00:00.000Z","","Submitted","High","1000.5","PCO-1","","A|B","Line1 Line2"`,
		lines[1])
	require.False(t, strings.HasSuffix(out, "\n"))
}

func TestDecodeHeaderOnly(t *testing.T) {
	t.Parallel()

	require.Empty(t, Decode(HeaderLine, fixedNow))
	require.Empty(t, Decode(HeaderLine+"\n\n\r\n", fixedNow))
	require.Empty(t, Decode("", fixedNow))
	require.NotNil(t, Decode("", fixedNow))
}

func TestDecodeIgnoresBlankTrailingLines(t *testing.T) {
	t.Parallel()

	csv := HeaderLine + "\n" + `"COR-7","x","y","z",,,,,"Draft","Low",0,,,` + "\n\n"
	require.Len(t, Decode(csv, fixedNow), 1)
}

func TestDecodeByHeaderName(t *testing.T) {
	t.Parallel()

	csv := "\"title\",amount,corNumber,status,priority,tags\r\n" +
		`"Overlay lot"," 175000 ","COR-4","pending rfi","HIGH","Alt||Pricing|"` + "\r\n"
	rows := Decode(csv, fixedNow)
	require.Len(t, rows, 1)
	r := rows[0]
	require.Equal(t, "COR-4", r.CORNumber)
	require.Equal(t, "Overlay lot", r.Title)
	require.Equal(t, 175000.0, r.Amount)
	require.Equal(t, cor.StatusPendingRFI, r.Status)
	require.Equal(t, cor.PriorityHigh, r.Priority)
	require.Equal(t, []string{"Alt", "Pricing"}, r.Tags)
	require.Empty(t, r.Subcontractor)
	require.Nil(t, r.SubmittedAt)
}

func TestDecodeDefaults(t *testing.T) {
	t.Parallel()

	csv := HeaderLine + "\n" + `"COR-9","short row"`
	rows := Decode(csv, fixedNow)
	require.Len(t, rows, 1)
	r := rows[0]
	require.Equal(t, "short row", r.Title)
	require.Equal(t, cor.StatusDraft, r.Status)
	require.Equal(t, cor.PriorityMedium, r.Priority)
	require.Zero(t, r.Amount)
	require.Empty(t, r.Tags)
	require.NotNil(t, r.Tags)

	bad := HeaderLine + "\n" + `"COR-10","t","s","tr","yesterday","","Closed","Urgent","lots","","","",""`
	r = Decode(bad, fixedNow)[0]
	require.Equal(t, cor.StatusDraft, r.Status)
	require.Equal(t, cor.PriorityMedium, r.Priority)
	require.Zero(t, r.Amount)
	require.Nil(t, r.SubmittedAt)
}

func TestDecodeAssignsFreshIdentity(t *testing.T) {
	t.Parallel()

	src := []cor.Record{cor.New(cor.Draft{CORNumber: "COR-1"}, fixedNow.AddDate(-1, 0, 0))}
	out := Decode(Encode(src), fixedNow)
	require.Len(t, out, 1)
	require.NotEqual(t, src[0].ID, out[0].ID)
	require.NotEmpty(t, out[0].ID)
	require.Equal(t, fixedNow, out[0].CreatedAt)
}

func TestRoundTripPreservesTextFields(t *testing.T) {
	t.Parallel()

	for seed := uint64(1); seed <= 20; seed++ {
		in := testdata.Records(testdata.NewRand(seed), 25, fixedNow, testdata.WithAwkwardText())
		out := Decode(Encode(in), fixedNow)
		require.Len(t, out, len(in))
		for i := range in {
			a, b := in[i], out[i]
			require.Equal(t, a.CORNumber, b.CORNumber)
			require.Equal(t, a.Title, b.Title)
			require.Equal(t, a.Subcontractor, b.Subcontractor)
			require.Equal(t, a.Trade, b.Trade)
			require.Equal(t, a.OwnerRef, b.OwnerRef)
			require.Equal(t, a.RFI, b.RFI)
			require.Equal(t, a.Tags, b.Tags)
			require.Equal(t, a.Status, b.Status)
			require.Equal(t, a.Priority, b.Priority)
			require.Equal(t, a.Amount, b.Amount)
			require.Equal(t, strings.ReplaceAll(a.Notes, "\n", " "), b.Notes)
			if a.SubmittedAt == nil {
				require.Nil(t, b.SubmittedAt)
			} else {
				require.WithinDuration(t, *a.SubmittedAt, *b.SubmittedAt, time.Millisecond)
			}
		}
	}
}

func TestRoundTripKnownValues(t *testing.T) {
	t.Parallel()

	in := []cor.Record{{
		CORNumber:     `COR-"2"`,
		Title:         `"He said ""ok"""`,
		Subcontractor: "Sub, Inc | West",
		Trade:         " Paving ",
		OwnerRef:      `""`,
		RFI:           "RFI-9,10",
		Tags:          []string{`a,b`, `"q"`, " spaced "},
	}}
	out := Decode(Encode(in), fixedNow)
	require.Len(t, out, 1)
	require.Equal(t, in[0].CORNumber, out[0].CORNumber)
	require.Equal(t, in[0].Title, out[0].Title)
	require.Equal(t, in[0].Subcontractor, out[0].Subcontractor)
	require.Equal(t, in[0].Trade, out[0].Trade)
	require.Equal(t, in[0].OwnerRef, out[0].OwnerRef)
	require.Equal(t, in[0].RFI, out[0].RFI)
	require.Equal(t, in[0].Tags, out[0].Tags)
}

func TestDecodeReader(t *testing.T) {
	t.Parallel()

	rows, err := DecodeReader(strings.NewReader(HeaderLine+"\n\"COR-1\""), fixedNow)
	require.NoError(t, err)
	require.Len(t, rows, 1)
}

func TestParseTime(t *testing.T) {
	t.Parallel()

	require.NotNil(t, ParseTime("2024-01-10T00:00:00.000Z"))
	require.NotNil(t, ParseTime("2024-01-10T05:00:00+02:00"))
	require.Equal(t, time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC), *ParseTime("2024-01-10"))
	require.Nil(t, ParseTime("10/01/2024"))
	require.Nil(t, ParseTime(""))
}
