package report

import (
	"github.com/schoolerp/backend/internal/domain/library"
	"github.com/schoolerp/backend/internal/domain/school"
	"github.com/shopspring/decimal"
)

// IssueDataset counts library issues; issues carry no amount.
var IssueDataset = Dataset[library.Issue]{
	Name: library.CollectionIssues,
	Date: library.Issue.EffectiveDate,
}

// LibraryData is the cached input of the library report.
type LibraryData struct {
	Books    []library.Book
	Issues   []library.Issue
	Students []school.Student
}

// LibraryReport is the derived library view for a date range.
type LibraryReport struct {
	Range            DateRange              `json:"range"`
	TotalTitles      int                    `json:"totalTitles"`
	TotalCopies      int                    `json:"totalCopies"`
	IssuedCount      int                    `json:"issuedCount"`
	AvailableCopies  int                    `json:"availableCopies"`
	Utilization      decimal.Decimal        `json:"utilization"`
	BooksByStatus    []Bucket               `json:"booksByStatus"`
	BooksByCategory  []Bucket               `json:"booksByCategory"`
	IssuesInPeriod   int                    `json:"issuesInPeriod"`
	ReturnedInPeriod int                    `json:"returnedInPeriod"`
	IssuesByStatus   []Bucket               `json:"issuesByStatus"`
	MostIssued       []Ranked               `json:"mostIssued"`
	Availability     []library.Availability `json:"availability"`

	IssueRecords []library.Issue `json:"-"`
	Books        []library.Book  `json:"-"`
}

// BuildLibrary derives the library report. Availability reflects every
// outstanding issue; the period counters use the filtered issues only.
func BuildLibrary(data LibraryData, r DateRange) *LibraryReport {
	issues := IssueDataset.Filter(data.Issues, r)

	rep := &LibraryReport{
		Range:          r,
		TotalTitles:    len(data.Books),
		IssuesInPeriod: len(issues),
		IssueRecords:   issues,
		Books:          data.Books,
	}

	titles := make(map[string]string, len(data.Books))
	rep.Availability = make([]library.Availability, 0, len(data.Books))
	for _, b := range data.Books {
		titles[b.ID] = b.Title
		a := b.Availability(data.Issues)
		rep.Availability = append(rep.Availability, a)
		rep.TotalCopies += a.Copies
		rep.IssuedCount += a.IssuedCount
		rep.AvailableCopies += a.AvailableCount
	}
	rep.Utilization = RateInt(rep.IssuedCount, rep.TotalCopies)

	books := Dataset[library.Book]{
		Name:   library.CollectionBooks,
		Amount: func(b library.Book) decimal.Decimal { return decimal.NewFromInt(int64(b.Copies)) },
	}
	byStatus := books.GroupBy(data.Books, func(b library.Book) string { return string(b.Status) }, Unknown)
	byStatus.Ensure(string(library.BookAvailable), string(library.BookUnavailable))
	rep.BooksByStatus = byStatus.Buckets()
	rep.BooksByCategory = books.GroupBy(data.Books, func(b library.Book) string { return b.Category }, Uncategorized).ByCountDesc()

	issueStatus := IssueDataset.GroupBy(issues, func(i library.Issue) string { return string(i.Status) }, Unknown)
	issueStatus.Ensure(string(library.IssueIssued), string(library.IssueReturned))
	rep.IssuesByStatus = issueStatus.Buckets()
	rep.ReturnedInPeriod = issueStatus.Get(string(library.IssueReturned)).Count

	byBook := IssueDataset.GroupBy(issues, func(i library.Issue) string { return i.BookID }, Unknown)
	rep.MostIssued = Rank(byBook.ByCountDesc(), 10, lookup(titles))
	return rep
}

// Summary implements Summarizer.
func (r *LibraryReport) Summary() []Metric {
	var m metrics
	m.int("Total Titles", r.TotalTitles)
	m.int("Total Copies", r.TotalCopies)
	m.int("Issued Copies", r.IssuedCount)
	m.int("Available Copies", r.AvailableCopies)
	m.dec("Utilization %", r.Utilization)
	m.int("Issues In Period", r.IssuesInPeriod)
	m.int("Returned In Period", r.ReturnedInPeriod)
	for _, b := range r.MostIssued {
		m.int("Most Issued: "+b.Name, b.Count)
	}
	return m
}

// lookup resolves an ID to a display name, falling back to the ID itself.
func lookup(names map[string]string) func(string) string {
	return func(id string) string {
		if n, ok := names[id]; ok && n != "" {
			return n
		}
		return id
	}
}

// StudentNames indexes student names by ID.
func StudentNames(students []school.Student) map[string]string {
	out := make(map[string]string, len(students))
	for _, s := range students {
		out[s.ID] = s.Name
	}
	return out
}
