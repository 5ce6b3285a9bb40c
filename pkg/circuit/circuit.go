package circuit

import (
	"fmt"
	"strconv"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/edp1096/toy-acdc/pkg/device"
	"github.com/edp1096/toy-acdc/pkg/matrix"
	"github.com/edp1096/toy-acdc/pkg/netlist"
	"github.com/edp1096/toy-acdc/pkg/nodemap"
)

// Circuit resolves netlist names to node and branch indices and owns the
// resulting devices.
type Circuit struct {
	name    string
	index   *nodemap.NodeEdgeIndex
	devices []device.Device
	byName  map[string]device.Device
	Models  map[string]device.ModelParam
	logger  *zap.Logger
}

func New(name string, logger *zap.Logger) *Circuit {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Circuit{
		name:   name,
		index:  nodemap.New(),
		byName: make(map[string]device.Device),
		Models: make(map[string]device.ModelParam),
		logger: logger,
	}
}

// FromNetlist builds a circuit from parsed netlist data.
func FromNetlist(data *netlist.NetlistData, logger *zap.Logger) (*Circuit, error) {
	ckt := New(data.Title, logger)
	ckt.SetModels(data.Models)

	if err := ckt.AssignNodeBranchMaps(data.Elements); err != nil {
		return nil, err
	}
	if err := ckt.SetupDevices(data.Elements); err != nil {
		return nil, err
	}
	return ckt, nil
}

func (c *Circuit) SetModels(models map[string]device.ModelParam) {
	c.Models = models
}

// needsBranch reports whether an element's current is a group 2 unknown.
func needsBranch(elem netlist.Element) bool {
	switch elem.Type {
	case "V", "E", "H", "L":
		return true
	}
	return elem.Group2
}

// AssignNodeBranchMaps allocates node indices in first-seen order, then one
// branch per group 2 element labelled with the element name.
func (c *Circuit) AssignNodeBranchMaps(elements []netlist.Element) error {
	var errs error

	for _, elem := range elements {
		for _, nodeName := range elem.Nodes {
			if _, err := c.index.NodeIndex(nodeName); err != nil {
				errs = multierr.Append(errs, fmt.Errorf("%s: %w", elem.Name, err))
			}
		}
	}

	for _, elem := range elements {
		if needsBranch(elem) {
			c.index.EdgeIndex(elem.Name)
		}
	}

	c.logger.Debug("allocated indices",
		zap.Int("nodes", c.index.NumNodes()),
		zap.Int("branches", c.index.NumEdges()))

	return errs
}

// SetupDevices creates one device per element. Every failing element is
// reported, not just the first.
func (c *Circuit) SetupDevices(elements []netlist.Element) error {
	var errs error

	for _, elem := range elements {
		if _, dup := c.byName[elem.Name]; dup {
			errs = multierr.Append(errs, fmt.Errorf("duplicate element name %s", elem.Name))
			continue
		}

		dev, err := c.createDevice(elem)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("creating device %s: %w", elem.Name, err))
			continue
		}

		c.devices = append(c.devices, dev)
		c.byName[elem.Name] = dev
	}

	// Couplings refer to inductors by name, in any order.
	for _, dev := range c.devices {
		if k, ok := dev.(*device.Mutual); ok {
			errs = multierr.Append(errs, c.bindMutual(k))
		}
	}

	return errs
}

func (c *Circuit) nodeIndices(names []string) ([]int, error) {
	nodes := make([]int, len(names))
	for i, name := range names {
		idx, err := c.index.NodeIndex(name)
		if err != nil {
			return nil, err
		}
		nodes[i] = idx
	}
	return nodes, nil
}

func (c *Circuit) createDevice(elem netlist.Element) (device.Device, error) {
	n, err := c.nodeIndices(elem.Nodes)
	if err != nil {
		return nil, err
	}

	var dev device.Device
	switch elem.Type {
	case "R":
		dev = device.NewResistor(elem.Name, n[0], n[1], elem.Value)
	case "C":
		dev = device.NewCapacitor(elem.Name, n[0], n[1], elem.Value)
	case "L":
		dev = device.NewInductor(elem.Name, n[0], n[1], elem.Value)

	case "V", "I":
		acMag, acPhase, err := acParams(elem)
		if err != nil {
			return nil, err
		}
		if elem.Type == "V" {
			dev = device.NewACVoltageSource(elem.Name, n[0], n[1], elem.Value, acMag, acPhase)
		} else {
			dev = device.NewACCurrentSource(elem.Name, n[0], n[1], elem.Value, acMag, acPhase)
		}

	case "E":
		dev = device.NewVCVS(elem.Name, n[0], n[1], n[2], n[3], elem.Value)
	case "G":
		dev = device.NewVCCS(elem.Name, n[0], n[1], n[2], n[3], elem.Value)

	case "F", "H":
		control := elem.Params["control"]
		ctrl, ok := c.index.HasEdge(control)
		if !ok {
			return nil, fmt.Errorf("controlling element %s has no branch current", control)
		}
		if elem.Type == "F" {
			f := device.NewCCCS(elem.Name, n[0], n[1], control, elem.Value)
			f.SetControlBranch(ctrl)
			dev = f
		} else {
			h := device.NewCCVS(elem.Name, n[0], n[1], control, elem.Value)
			h.SetControlBranch(ctrl)
			dev = h
		}

	case "K":
		dev = device.NewMutual(elem.Name, []string{elem.Params["ind1"], elem.Params["ind2"]}, elem.Value)

	case "D":
		d := device.NewDiode(elem.Name, n[0], n[1], elem.Params["model"])
		c.applyModel(&d.Nonlinear)
		dev = d
	case "Q":
		q := device.NewBJT(elem.Name, n[0], n[1], n[2], elem.Params["model"])
		c.applyModel(&q.Nonlinear)
		dev = q
	case "M":
		m := device.NewMosfet(elem.Name, n[0], n[1], n[2], n[3], elem.Params["model"])
		c.applyModel(&m.Nonlinear)
		dev = m

	default:
		return nil, fmt.Errorf("unsupported element type %s", elem.Type)
	}

	if idx, ok := c.index.HasEdge(elem.Name); ok {
		dev.(interface{ SetBranchIndex(int) }).SetBranchIndex(idx)
	}

	return dev, nil
}

func acParams(elem netlist.Element) (mag, phase float64, err error) {
	if s, ok := elem.Params["acmag"]; ok {
		if mag, err = netlist.ParseValue(s); err != nil {
			return 0, 0, fmt.Errorf("invalid AC magnitude: %w", err)
		}
	}
	if s, ok := elem.Params["acphase"]; ok {
		if phase, err = strconv.ParseFloat(s, 64); err != nil {
			return 0, 0, fmt.Errorf("invalid AC phase: %w", err)
		}
	}
	return mag, phase, nil
}

func (c *Circuit) applyModel(d *device.Nonlinear) {
	if model, exists := c.Models[d.Model]; exists {
		d.SetModelParameters(model.Params)
	}
}

func (c *Circuit) bindMutual(k *device.Mutual) error {
	for i, name := range k.GetInductorNames() {
		ind, ok := c.byName[name].(*device.Inductor)
		if !ok {
			return fmt.Errorf("%s: %s is not an inductor", k.GetName(), name)
		}
		if err := k.SetInductor(i, ind); err != nil {
			return err
		}
	}
	return nil
}

func (c *Circuit) Name() string                  { return c.name }
func (c *Circuit) GetDevices() []device.Device   { return c.devices }
func (c *Circuit) Index() *nodemap.NodeEdgeIndex { return c.index }
func (c *Circuit) GetNumNodes() int              { return c.index.NumNodes() }
func (c *Circuit) GetNumBranches() int           { return c.index.NumEdges() }

func (c *Circuit) GetDevice(name string) (device.Device, bool) {
	dev, ok := c.byName[name]
	return dev, ok
}

// Solution names a solved system: V(node) for every node, I(element) for
// every branch, and I(R) = (v1 - v2)/R for group 1 resistors.
func Solution[T matrix.Scalar](c *Circuit, voltages, currents []T) map[string]T {
	solution := make(map[string]T)

	// Node voltage
	for i, v := range voltages {
		solution[fmt.Sprintf("V(%s)", c.index.NodeName(i+1))] = v
	}

	// Branch current
	for e, i := range currents {
		solution[fmt.Sprintf("I(%s)", c.index.EdgeName(e))] = i
	}

	// V = IR -> I = V/R
	nodeVoltage := func(n int) T {
		var zero T
		if n == 0 || n > len(voltages) {
			return zero
		}
		return voltages[n-1]
	}
	for _, dev := range c.devices {
		r, ok := dev.(*device.Resistor)
		if !ok || r.Value == 0 {
			continue
		}
		if _, group2 := r.BranchIndex(); group2 {
			continue
		}
		v := nodeVoltage(r.Nodes[0]) - nodeVoltage(r.Nodes[1])
		solution[fmt.Sprintf("I(%s)", r.Name)] = v / fromReal[T](r.Value)
	}

	return solution
}

func fromReal[T matrix.Scalar](x float64) T {
	var t T
	switch p := any(&t).(type) {
	case *float64:
		*p = x
	case *complex128:
		*p = complex(x, 0)
	}
	return t
}
