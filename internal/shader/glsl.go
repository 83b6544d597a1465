package shader

// GLSL 330 sources for hardware backends. The software kernels in kernel.go
// evaluate the same programs on the CPU.

const basicVertexGLSL = `#version 330
in vec4 a_position;
in vec2 a_texCoord;

out vec2 v_texCoord;

uniform mat4 u_model;
uniform mat4 u_view;
uniform mat4 u_proj;

void main() {
    gl_Position = u_proj * u_view * u_model * a_position;
    v_texCoord = a_texCoord;
}
`

const basicFragmentGLSL = `#version 330
in vec2 v_texCoord;
out vec4 FragColor;

uniform int u_mode;
uniform vec3 u_const1;
uniform vec3 u_const2;
uniform vec3 u_const3;
uniform sampler2D s_texture;

void main() {
    vec4 t = texture(s_texture, v_texCoord);
    vec4 c;
    if (u_mode == 0)      c = vec4(u_const1, 1.0);
    else if (u_mode == 1) c = t;
    else if (u_mode == 2) c = vec4(u_const1 * t.r + u_const2 * t.g + u_const3 * t.b, t.a);
    else if (u_mode == 3) c = vec4(u_const1, t.r);
    else if (u_mode == 4) c = vec4(u_const1 * t.g, t.r);
    else                  c = vec4(u_const1 * t.r, 1.0);
    if (u_mode != 0 && c.a == 0.0) discard;
    FragColor = c;
}
`

const litVertexGLSL = `#version 330
in vec4 a_position;
in vec2 a_texCoord;
in vec3 a_normal;
in vec3 a_tangent;
in vec4 a_color;
in vec4 a_boneIds;
in vec4 a_boneWeights;

out vec4 v_position;
out vec3 v_normal;
out vec3 v_tangent;
out vec2 v_texCoord;
out vec4 v_color;

uniform mat4 u_model;
uniform mat4 u_view;
uniform mat4 u_proj;
uniform mat4 boneMatrices[80];
uniform int skinningEnabled;

void main() {
    vec4 position = a_position;
    vec3 normal = a_normal;
    if (skinningEnabled == 1) {
        position = vec4(0.0);
        normal = vec3(0.0);
        for (int i = 0; i < 4; i++) {
            mat4 bone = boneMatrices[int(a_boneIds[i])];
            position += a_boneWeights[i] * (bone * a_position);
            normal += a_boneWeights[i] * (transpose(inverse(mat3(bone))) * a_normal);
        }
        normal = normalize(normal);
    }
    mat4 mv = u_view * u_model;
    mat3 nm = transpose(inverse(mat3(mv)));
    v_position = mv * position;
    gl_Position = u_proj * v_position;
    v_normal = normalize(nm * normal);
    v_tangent = normalize(nm * a_tangent);
    v_texCoord = a_texCoord;
    v_color = a_color;
}
`

const litFragmentGLSL = `#version 330
in vec4 v_position;
in vec3 v_normal;
in vec3 v_tangent;
in vec2 v_texCoord;
in vec4 v_color;
out vec4 FragColor;

uniform int u_mode;
uniform vec3 u_const1;
uniform vec3 u_const2;
uniform vec3 u_const3;
uniform sampler2D s_texture;

uniform bool u_light_enable;
uniform vec3 u_light_ambient;
uniform vec3 u_light_diffuse;
uniform vec3 u_light_specular;
uniform vec3 u_light_dir;
uniform vec3 u_material_ambient;
uniform vec3 u_material_diffuse;
uniform vec3 u_material_specular;
uniform int u_material_specular_mode;
uniform float u_material_specular_power;
uniform vec3 u_rim_color;
uniform float u_rim_power;

void main() {
    vec4 t = texture(s_texture, v_texCoord);
    vec4 c;
    if (u_mode == 0)      c = vec4(u_const1, 1.0);
    else if (u_mode == 1) c = t;
    else if (u_mode == 2) c = vec4(u_const1 * t.r + u_const2 * t.g + u_const3 * t.b, t.a);
    else if (u_mode == 3) c = vec4(u_const1, t.r);
    else if (u_mode == 4) c = vec4(u_const1 * t.g, t.r);
    else                  c = vec4(u_const1 * t.r, 1.0);
    if (u_mode != 0 && c.a == 0.0) discard;

    if (u_light_enable) {
        vec3 n = normalize(v_normal);
        vec3 eye = normalize(-v_position.xyz);
        vec3 ambient = u_light_ambient * u_material_ambient;
        vec3 diffuse = u_light_diffuse * u_material_diffuse * max(dot(u_light_dir, n), 0.1);
        float blinn = pow(max(dot(reflect(-u_light_dir, n), eye), 0.0), u_material_specular_power);
        float reflection = blinn;
        float strength = 1.0;
        if (u_material_specular_mode != 0) {
            float lt = dot(u_light_dir, v_tangent);
            float vt = dot(eye, v_tangent);
            float vr = sqrt(1.0 - lt * lt) * sqrt(1.0 - vt * vt) - lt * vt;
            float aniso = pow(max(vr, 0.0), u_material_specular_power);
            reflection = mix(aniso, blinn, v_color.r);
            strength = v_color.g;
        }
        vec3 specular = u_light_specular * u_material_specular * reflection * strength;
        vec3 rim = u_rim_color * pow(v_color.a * (1.0 - abs(n.z)), u_rim_power);
        c.rgb = (ambient + diffuse) * c.rgb + specular + rim;
    }
    FragColor = c;
}
`
