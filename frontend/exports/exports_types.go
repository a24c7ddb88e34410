package exports

type RunRow struct {
	Picklist  string
	Mode      string
	FileName  string
	ByteSize  int64
	RowCount  int64
	CreatedAt string
}

type PageData struct {
	StationID string
	Runs      []RunRow
}
