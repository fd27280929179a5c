package types

import "strings"

type BCFLAG uint8

const (
	BC_None BCFLAG = iota
	BC_Dirichlet
	BC_Neuman
	BC_Interface
)

var BCNameMap = map[string]BCFLAG{
	"dirichlet": BC_Dirichlet,
	"neuman":    BC_Neuman,
	"neumann":   BC_Neuman,
	"interface": BC_Interface,
}

func NewBCFLAG(label string) (bc BCFLAG) {
	var ok bool
	if bc, ok = BCNameMap[strings.ToLower(strings.TrimSpace(label))]; !ok {
		bc = BC_None
	}
	return
}

func (bc BCFLAG) String() string {
	switch bc {
	case BC_Dirichlet:
		return "Dirichlet"
	case BC_Neuman:
		return "Neuman"
	case BC_Interface:
		return "Interface"
	}
	return "None"
}
