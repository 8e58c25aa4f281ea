package export

// Dataset defines tabular export content.
type Dataset struct {
	Headers []string
	Rows    []map[string]string
}

// Field is a labelled summary value printed above the tables.
type Field struct {
	Label string
	Value string
}

// Section is a titled table of the report.
type Section struct {
	Heading string
	Data    Dataset
}

// Report is a document made of a title, summary fields and tabular sections.
type Report struct {
	Title    string
	Subtitle string
	Summary  []Field
	Sections []Section
}
