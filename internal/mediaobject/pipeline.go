package mediaobject

// PipelineType is the type name of pipelines.
const PipelineType = "MediaPipeline"

// Pipeline is the root of an ownership tree.
type Pipeline struct {
	base
}

// NewPipeline allocates a Pipeline.
func NewPipeline(factory BackendFactory, params Params) (*Pipeline, error) {
	p := &Pipeline{}
	p.initialize(KindPipeline, PipelineType, params)

	err := p.attach(factory)
	if err != nil {
		return nil, err
	}

	return p, nil
}

// CreateElement creates an element that belongs to the pipeline.
func (p *Pipeline) CreateElement(factory BackendFactory, typ string, params Params) (*Element, error) {
	return newElement(factory, KindElement, typ, params)
}

// CreateMixer creates a mixer that belongs to the pipeline.
func (p *Pipeline) CreateMixer(factory BackendFactory, typ string, params Params) (*Mixer, error) {
	m := &Mixer{}
	m.initialize(KindMixer, typ, params)

	err := m.attach(factory)
	if err != nil {
		return nil, err
	}

	return m, nil
}
