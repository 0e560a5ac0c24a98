package graphics

import "github.com/go-gl/gl/v4.1-core/gl"

const quadVertexShader = `#version 410 core
layout(location = 0) in vec2 position;
layout(location = 1) in vec2 uv;
out vec2 fragUV;
void main() {
	fragUV = uv;
	gl_Position = vec4(position, 0.0, 1.0);
}`

const quadFragmentShader = `#version 410 core
in vec2 fragUV;
uniform sampler2D heightTex;
out vec4 fragColor;
void main() {
	fragColor = texture(heightTex, fragUV);
}`

// Image row 0 is the top, so v runs downwards
var quadVertices = []float32{
	// position   uv
	-1, -1, 0, 1,
	1, -1, 1, 1,
	1, 1, 1, 0,
	-1, -1, 0, 1,
	1, 1, 1, 0,
	-1, 1, 0, 0,
}

// Quad draws a texture over the whole viewport
type Quad struct {
	shader *Shader
	vao    uint32
	vbo    uint32
}

// NewQuad builds the quad geometry and its shader
func NewQuad() (*Quad, error) {
	shader, err := NewShader(quadVertexShader, quadFragmentShader)
	if err != nil {
		return nil, err
	}
	q := &Quad{shader: shader}

	gl.GenVertexArrays(1, &q.vao)
	gl.BindVertexArray(q.vao)

	gl.GenBuffers(1, &q.vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, q.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(quadVertices)*4, gl.Ptr(quadVertices), gl.STATIC_DRAW)

	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointer(0, 2, gl.FLOAT, false, 4*4, gl.PtrOffset(0))
	gl.EnableVertexAttribArray(1)
	gl.VertexAttribPointer(1, 2, gl.FLOAT, false, 4*4, gl.PtrOffset(2*4))

	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
	gl.BindVertexArray(0)
	return q, nil
}

// Draw renders t across the viewport
func (q *Quad) Draw(t *Texture) {
	q.shader.Use()
	t.Bind(0)
	q.shader.SetInt("heightTex", 0)
	gl.BindVertexArray(q.vao)
	gl.DrawArrays(gl.TRIANGLES, 0, int32(len(quadVertices)/4))
	gl.BindVertexArray(0)
}

// Delete releases GPU resources
func (q *Quad) Delete() {
	gl.DeleteBuffers(1, &q.vbo)
	gl.DeleteVertexArrays(1, &q.vao)
	q.shader.Delete()
}
