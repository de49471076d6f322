package shader

import (
	"fmt"
	"strings"
)

// ────────────────────────────────── Desktop GL ──────────────────────────────────

const vertexShaderSourceGL = `#version 410 core
layout (location = 0) in vec2 in_vert;
out vec2 frag_uv;
void main() {
    frag_uv = in_vert * 0.5 + 0.5;
    gl_Position = vec4(in_vert, 0.0, 1.0);
}
`

const blitFragmentShaderSourceGL = `#version 410 core
in vec2 frag_uv;
out vec4 fragColor;
uniform sampler2D u_texture;
void main() { fragColor = texture(u_texture, frag_uv); }
`

// ──────────────────────────────────── GLES ──────────────────────────────────────

const vertexShaderSourceGLES = `#version 300 es
layout (location = 0) in vec2 in_vert;
out vec2 frag_uv;
void main() {
    frag_uv = in_vert * 0.5 + 0.5;
    gl_Position = vec4(in_vert, 0.0, 1.0);
}
`

const blitFragmentShaderSourceGLES = `#version 300 es
precision mediump float;
in vec2 frag_uv;
out vec4 fragColor;
uniform sampler2D u_texture;
void main() { fragColor = texture(u_texture, frag_uv); }
`

// ───────────────────────────── Transition (WebGL2) ──────────────────────────────

// Uniform names shared by the fragment source and the renderer.
const (
	UniformResolution = "resolution"
	UniformTime       = "time"
	UniformMouse      = "u_mouse"
)

// TextureUniform is the sampler name for image i.
func TextureUniform(i int) string { return fmt.Sprintf("texture_%d", i) }

// RatioUniform is the aspect ratio name for image i.
func RatioUniform(i int) string { return fmt.Sprintf("ratio_%d", i) }

const transitionPreamble = `#version 300 es
precision highp float;
precision highp int;

uniform vec2  resolution;
uniform float time;
uniform vec2  u_mouse;
`

// Letterboxed sample of image N. The crop is centered in the texture.
const sampleTemplate = `
vec4 sample_N(vec2 uv) {
    vec2 st = uv * ratio_N;
    if (ratio_N.x < 1.0) {
        st.x += (1.0 - ratio_N.x) / 2.0;
    }
    if (ratio_N.y < 1.0) {
        st.y += (1.0 - ratio_N.y) / 2.0;
    }
    return texture(texture_N, st);
}
`

// The band constants match transition.Blend.
const transitionMain = `
out vec4 fragColor;

void main() {
    vec2 uv = gl_FragCoord.xy / resolution.xy;

    vec4 image_0 = sample_0(uv);
    vec4 image_1 = sample_1(uv);

    float progress = u_mouse.y * 4.8 - uv.y * 3.0 + uv.x * 0.8 - 0.8;
    progress = clamp(progress, 0.0, 1.0);

    fragColor = mix(image_0, image_1, progress);
}
`

// GetTransitionFragmentShader returns the WebGL2 source of the two-image wipe.
// It is translated to the target GL dialect before compilation.
func GetTransitionFragmentShader() string {
	var b strings.Builder
	b.WriteString(transitionPreamble)
	for i := 0; i < 2; i++ {
		fmt.Fprintf(&b, "uniform sampler2D %s;\n", TextureUniform(i))
		fmt.Fprintf(&b, "uniform vec2      %s;\n", RatioUniform(i))
	}
	for i := 0; i < 2; i++ {
		b.WriteString(strings.ReplaceAll(sampleTemplate, "_N", fmt.Sprintf("_%d", i)))
	}
	b.WriteString(transitionMain)
	return b.String()
}

// ────────────────────────────────── Public API ─────────────────────────────────

func GenerateVertexShader(isGLES bool) string {
	if isGLES {
		return vertexShaderSourceGLES
	}
	return vertexShaderSourceGL
}

func GetBlitFragmentShader(isGLES bool) string {
	if isGLES {
		return blitFragmentShaderSourceGLES
	}
	return blitFragmentShaderSourceGL
}
