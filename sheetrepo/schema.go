package sheetrepo

// Schema declares the header fields a logical table must carry.
type Schema struct {
	Table  string
	Fields []string
}

// Check reports the first declared field missing from headers.
func (s Schema) Check(headers []string) error {
	present := make(map[string]struct{}, len(headers))
	for _, h := range headers {
		present[h] = struct{}{}
	}
	for _, f := range s.Fields {
		if _, ok := present[f]; !ok {
			return &SchemaError{Table: s.Table, Field: f, Message: "missing from header row"}
		}
	}
	return nil
}
