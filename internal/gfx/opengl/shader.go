package opengl

import (
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"
	"go.uber.org/zap"

	"github.com/Faultbox/relief/internal/gfx"
	"github.com/Faultbox/relief/internal/logger"
)

// program is a linked shader program with its slot bindings resolved.
type program struct {
	id       uint32
	samplers map[int]int32
}

// compileProgram compiles vertex and fragment shaders and links them into a program.
func compileProgram(vertexSrc, fragmentSrc string) (uint32, error) {
	vertShader, err := compileShader(vertexSrc, gl.VERTEX_SHADER, "vertex")
	if err != nil {
		return 0, err
	}
	defer gl.DeleteShader(vertShader)

	fragShader, err := compileShader(fragmentSrc, gl.FRAGMENT_SHADER, "fragment")
	if err != nil {
		return 0, err
	}
	defer gl.DeleteShader(fragShader)

	prog := gl.CreateProgram()
	gl.AttachShader(prog, vertShader)
	gl.AttachShader(prog, fragShader)
	gl.LinkProgram(prog)

	var status int32
	gl.GetProgramiv(prog, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLen int32
		gl.GetProgramiv(prog, gl.INFO_LOG_LENGTH, &logLen)
		log := make([]byte, logLen+1)
		gl.GetProgramInfoLog(prog, logLen, nil, &log[0])
		gl.DeleteProgram(prog)
		return 0, fmt.Errorf("link: %s", string(log))
	}

	return prog, nil
}

// compileShader compiles a single shader of the given type.
func compileShader(source string, shaderType uint32, name string) (uint32, error) {
	shader := gl.CreateShader(shaderType)
	csource, free := gl.Strs(source + "\x00")
	gl.ShaderSource(shader, 1, csource, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLen int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLen)
		log := make([]byte, logLen+1)
		gl.GetShaderInfoLog(shader, logLen, nil, &log[0])
		gl.DeleteShader(shader)
		return 0, fmt.Errorf("%s shader: %s", name, string(log))
	}

	return shader, nil
}

// CreateProgram compiles desc and binds its parameter blocks to the
// uniform buffer binding points named by their slot ids.
func (c *Context) CreateProgram(desc gfx.ProgramDesc) error {
	id, err := compileProgram(desc.Vertex, desc.Fragment)
	if err != nil {
		return fmt.Errorf("program %s: %w", desc.Name, err)
	}

	for slot, name := range desc.Blocks {
		index := gl.GetUniformBlockIndex(id, gl.Str(name+"\x00"))
		if index == gl.INVALID_INDEX {
			logger.Warn("uniform block not active", zap.String("program", desc.Name), zap.String("block", name))
			continue
		}
		gl.UniformBlockBinding(id, index, uint32(slot))
	}

	p := &program{id: id, samplers: make(map[int]int32, len(desc.Samplers))}
	for slot, name := range desc.Samplers {
		p.samplers[slot] = gl.GetUniformLocation(id, gl.Str(name+"\x00"))
	}

	if old, ok := c.programs[desc.Name]; ok {
		gl.DeleteProgram(old.id)
	}
	c.programs[desc.Name] = p
	logger.Debug("shader program created", zap.String("program", desc.Name), zap.Uint32("id", id))
	return nil
}
