package format

import "hexdis/internal/disasm"

// Document is the JSON output of one run.
type Document struct {
	Mode         string   `json:"mode" jsonschema:"title=Mode,description=Mode token the buffer was decoded with"`
	Base         string   `json:"base" jsonschema:"title=Base,description=Base address of the first byte"`
	Instructions []Record `json:"instructions" jsonschema:"title=Instructions"`
}

// Record is one decoded instruction in JSON output.
type Record struct {
	Address  string   `json:"address" jsonschema:"description=Instruction address as 0x-prefixed 16 digit hex"`
	Bytes    string   `json:"bytes" jsonschema:"description=Consumed bytes as space separated hex pairs"`
	Mnemonic string   `json:"mnemonic"`
	Operands string   `json:"operands"`
	Size     int      `json:"size" jsonschema:"minimum=1"`
	Detail   []string `json:"detail,omitempty" jsonschema:"description=Operands text split into one entry per operand (detail mode only)"`
}

func NewRecord(inst disasm.Inst) Record {
	return Record{
		Address:  Address(inst.Addr),
		Bytes:    Bytes(inst.Bytes),
		Mnemonic: inst.Mnemonic,
		Operands: inst.OpStr,
		Size:     inst.Len(),
		Detail:   inst.Operands,
	}
}
