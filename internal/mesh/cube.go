package mesh

// VerticesPerFace две треугольные грани на квадрат
const VerticesPerFace = 6

// Углы каждой грани единичного куба; обход против часовой стрелки при взгляде снаружи
var faceCorners = [FaceCount][VerticesPerFace][3]float32{
	FaceRight:  {{1, 0, 1}, {1, 0, 0}, {1, 1, 0}, {1, 1, 0}, {1, 1, 1}, {1, 0, 1}},
	FaceLeft:   {{0, 0, 0}, {0, 0, 1}, {0, 1, 1}, {0, 1, 1}, {0, 1, 0}, {0, 0, 0}},
	FaceTop:    {{0, 1, 1}, {1, 1, 1}, {1, 1, 0}, {1, 1, 0}, {0, 1, 0}, {0, 1, 1}},
	FaceBottom: {{0, 0, 0}, {1, 0, 0}, {1, 0, 1}, {1, 0, 1}, {0, 0, 1}, {0, 0, 0}},
	FaceFront:  {{0, 0, 1}, {1, 0, 1}, {1, 1, 1}, {1, 1, 1}, {0, 1, 1}, {0, 0, 1}},
	FaceBack:   {{1, 0, 0}, {0, 0, 0}, {0, 1, 0}, {0, 1, 0}, {1, 1, 0}, {1, 0, 0}},
}

// Углы текстуры в том же порядке: 0 - левый/нижний край, 1 - правый/верхний
var faceUVCorners = [VerticesPerFace][2]uint8{{0, 0}, {1, 0}, {1, 1}, {1, 1}, {0, 1}, {0, 0}}

// appendFace дописывает 6 вершин (x, y, z, u, v) грани блока с локальными координатами (x, y, z)
func appendFace(dst []float32, f Face, x, y, z float32, uv UVRect) []float32 {
	us := [2]float32{uv.U0, uv.U1}
	vs := [2]float32{uv.V0, uv.V1}

	for i, c := range faceCorners[f] {
		t := faceUVCorners[i]
		dst = append(dst, c[0]+x, c[1]+y, c[2]+z, us[t[0]], vs[t[1]])
	}
	return dst
}
