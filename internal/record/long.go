package record

// DXRow is one diagnosis in long (one row per code) form. Seq is 0 for the
// principal diagnosis and i for SECDXi.
type DXRow struct {
	ProvNum string
	PCN     string
	DisDate string
	Seq     int
	Code    string
	POA     string
}

// PXRow is one procedure in long form. Seq is 0 for the principal procedure
// and i for SECPRCi.
type PXRow struct {
	ProvNum string
	PCN     string
	DisDate string
	AdmDate string
	Seq     int
	Code    string
	Date    string
}

// SplitDX is one row of a client-submitted long DX file. Seq is 1-based:
// DXSQN 1 is the principal diagnosis.
type SplitDX struct {
	ProvNum string
	PCN     string
	Seq     int
	Code    string
	POA     string
}

// Key returns the encounter key of the row.
func (r SplitDX) Key() Key { return Key{ProvNum: r.ProvNum, PCN: r.PCN} }

// SplitPX is one row of a client-submitted long PX file. Seq is 1-based:
// PRCSQN 1 is the principal procedure.
type SplitPX struct {
	ProvNum string
	PCN     string
	Seq     int
	Code    string
	Date    string
}

// Key returns the encounter key of the row.
func (r SplitPX) Key() Key { return Key{ProvNum: r.ProvNum, PCN: r.PCN} }
