package proc

// Context holds the register state of a suspended process. The field order
// matches the offsets used by SwitchContext in switch_amd64.s.
type Context struct {
	RAX    uint64
	RBX    uint64
	RCX    uint64
	RDX    uint64
	RSI    uint64
	RDI    uint64
	RBP    uint64
	R8     uint64
	R9     uint64
	R10    uint64
	R11    uint64
	R12    uint64
	R13    uint64
	R14    uint64
	R15    uint64
	RSP    uint64
	RIP    uint64
	RFlags uint64
}

// rflagsDefault is the initial RFLAGS value for a new process: interrupts
// enabled plus the always-set reserved bit 1.
const rflagsDefault = uint64(0x202)

// SwitchContext saves the caller's register state into old and resumes
// execution from new. It returns when another context switch restores old.
func SwitchContext(old, new *Context)
