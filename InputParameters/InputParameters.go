package InputParameters

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/ghodss/yaml"

	"github.com/OliariVictor/FEMcomparison/model_problems/Laplace2D"
)

/*
Parameters obtained from the YAML input file, orders left out of the file stay nil.
The orders are keyed Order and Enrichment, YAML 1.1 reads a bare N or Y key as a boolean.
*/
type InputParametersFEM struct {
	Title            string             `json:"Title"`
	Problem          string             `json:"Problem"`
	Approx           string             `json:"Approx"`
	K                *int               `json:"Order"`
	N                *int               `json:"Enrichment"`
	HybridLevel      int                `json:"HybridLevel"`
	Exp              *int               `json:"Exp"`
	RefinementLevels *int               `json:"RefinementLevels"`
	BaseMeshSize     float64            `json:"BaseMeshSize"`
	Permeability     map[string]float64 `json:"Permeability"` // Keyed by Q1, Q2
	Threads          int                `json:"Threads"`
	PlotDir          string             `json:"PlotDir"`
	VTK              bool               `json:"VTK"`
	Database         string             `json:"Database"`
}

// Parse rejects keys that match no parameter
func (ip *InputParametersFEM) Parse(data []byte) (err error) {
	var js []byte
	if js, err = yaml.YAMLToJSON(data); err != nil {
		return
	}
	dec := json.NewDecoder(bytes.NewReader(js))
	dec.DisallowUnknownFields()
	return dec.Decode(ip)
}

// RunConfig validates the parameters, values absent from the file keep their defaults
func (ip *InputParametersFEM) RunConfig() (rc *Laplace2D.RunConfig, err error) {
	if rc, err = Laplace2D.ParseRunParameters(ip.Problem, ip.Approx, ip.K, ip.N); err != nil {
		return
	}
	if ip.HybridLevel != 0 {
		rc.HybridLevel = ip.HybridLevel
	}
	if ip.Exp != nil {
		rc.Exp = *ip.Exp
	}
	if ip.RefinementLevels != nil {
		rc.RefinementLevels = *ip.RefinementLevels
	}
	if ip.BaseMeshSize != 0 {
		rc.BaseMeshSize = ip.BaseMeshSize
	}
	if v, ok := ip.Permeability["Q1"]; ok {
		rc.PermQ1 = v
	}
	if v, ok := ip.Permeability["Q2"]; ok {
		rc.PermQ2 = v
	}
	rc.Threads = ip.Threads
	if err = rc.Validate(); err != nil {
		rc = nil
	}
	return
}

func (ip *InputParametersFEM) Print(w io.Writer) {
	fmt.Fprintf(w, "\"%s\"\t\t= Title\n", ip.Title)
	fmt.Fprintf(w, "[%s]\t\t= Problem\n", ip.Problem)
	fmt.Fprintf(w, "[%s]\t\t\t= Approximation\n", ip.Approx)
	if ip.K != nil {
		fmt.Fprintf(w, "[%d]\t\t\t\t= Polynomial Order k\n", *ip.K)
	}
	if ip.N != nil {
		fmt.Fprintf(w, "[%d]\t\t\t\t= Order Enrichment n\n", *ip.N)
	}
	if ip.RefinementLevels != nil {
		fmt.Fprintf(w, "[%d]\t\t\t\t= Refinement Levels\n", *ip.RefinementLevels)
	}
	keys := make([]string, 0, len(ip.Permeability))
	for k := range ip.Permeability {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, key := range keys {
		fmt.Fprintf(w, "Permeability[%s] = %v\n", key, ip.Permeability[key])
	}
}
