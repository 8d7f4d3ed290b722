package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"shapeio/pkg/config"
	"shapeio/pkg/imageio"
	"shapeio/pkg/meshio"
	"shapeio/pkg/scalars"
)

func main() {
	// Parse command line arguments
	input := flag.String("input", "", "Input image or mesh file (.vtk, .nii, .nia, .stl)")
	output := flag.String("output", "", "Output file; omit to only inspect the input")
	configPath := flag.String("config", "shapeio.yaml", "Path to the YAML configuration file")
	voxelType := flag.String("type", "", "Voxel type to coerce images to (int8, uint8, int16, uint16, int32, uint32, float32, float64)")
	decimate := flag.Int("decimate", 0, "Decimate a mesh to approximately this many vertices")
	mesh := flag.Bool("mesh", false, "Treat the input as a triangle mesh instead of an image")
	flag.Parse()

	if *input == "" {
		flag.Usage()
		os.Exit(1)
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if *mesh {
		runMesh(cfg, *input, *output, *decimate)
		return
	}
	runImage(cfg, *input, *output, *voxelType)
}

func runImage(cfg *config.Config, input, output, voxelType string) {
	stored, err := imageio.ScalarTypeOfFile(input)
	if err != nil {
		log.Fatalf("Failed to resolve scalar type: %v", err)
	}
	fmt.Printf("%s: scalar type %s\n", input, stored)

	if output == "" {
		return
	}

	want := stored
	if voxelType != "" {
		want, err = parseScalarType(voxelType)
		if err != nil {
			log.Fatalf("Bad -type value: %v", err)
		}
	}

	img, err := imageio.ReadImageWithCoercion(input, want, 3, imageio.ReadOptions{
		FavourQform: cfg.Nifti.FavourQform,
	})
	if err != nil {
		log.Fatalf("Failed to read image: %v", err)
	}
	if cfg.Output.Verbose {
		fmt.Printf("Read %dx%dx%d %s image\n", img.Size[0], img.Size[1], img.Size[2], img.ScalarType())
	}

	mode, err := imageio.ParseInterpolationMode(cfg.Image.Interpolation)
	if err != nil {
		log.Fatalf("Bad configuration: %v", err)
	}
	opts := imageio.WriteOptions{Interpolation: mode, TargetSpacing: cfg.Image.TargetSpacing}
	if err := imageio.WriteImage(img, output, opts); err != nil {
		log.Fatalf("Failed to write image: %v", err)
	}
	fmt.Printf("Wrote %s\n", output)
}

func runMesh(cfg *config.Config, input, output string, target int) {
	m, err := meshio.ReadMesh(input)
	if err != nil {
		log.Fatalf("Failed to read mesh: %v", err)
	}
	fmt.Printf("%s: %d vertices, %d triangles\n", input, m.NumVertices(), m.NumTriangles())

	if target == 0 {
		target = cfg.Mesh.TargetVertexCount
	}
	if target > 0 && target < m.NumVertices() {
		m = meshio.Decimate(m, target)
		if cfg.Output.Verbose {
			fmt.Printf("Decimated to %d vertices, %d triangles\n", m.NumVertices(), m.NumTriangles())
		}
	}

	if output == "" {
		return
	}
	if err := meshio.WriteMesh(m, output); err != nil {
		log.Fatalf("Failed to write mesh: %v", err)
	}
	fmt.Printf("Wrote %s\n", output)
}

func parseScalarType(s string) (scalars.Type, error) {
	for _, t := range scalars.Types {
		if t.String() == s {
			return t, nil
		}
	}
	return scalars.Unknown, fmt.Errorf("unknown scalar type %q", s)
}
