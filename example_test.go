package genval_test

import (
	"fmt"

	"github.com/willabides/genval"
)

func ExampleBuilder_Parse() {
	b := genval.NewBuilder(genval.BuilderConfig{})
	defer b.Destroy()

	dirv, err := b.Parse(genval.Input{String: "name: genval\nitems: [1, 2, 3]\n"}, 0)
	if err != nil {
		panic(err)
	}
	dir, _ := genval.DirOf(dirv)
	vds, _ := dir.Document(0)
	root := vds.Root()

	items := genval.GetAtPath(root, b.CreateString("items"))
	fmt.Println(genval.GetAtPath(root, b.CreateString("name")).Str())
	fmt.Println(items.Len(), genval.GetAt(items, 2).Int())
	// Output:
	// genval
	// 3 3
}

func ExampleBuilder_SetAtPathFlags() {
	b := genval.NewBuilder(genval.BuilderConfig{})
	defer b.Destroy()

	path := []genval.Value{b.CreateString("server"), b.CreateString("port")}
	root := b.SetAtPathFlags(genval.CreatePath, genval.EmptyMap, path, b.CreateInt(8080))

	out, _ := b.Emit(root, 0, nil)
	fmt.Print(out.Str())
	// Output:
	// server:
	//   port: 8080
}

func ExampleBuilder_Reduce() {
	b := genval.NewBuilder(genval.BuilderConfig{})
	defer b.Destroy()

	s := b.CreateSequence(b.CreateInt(1), b.CreateInt(2), b.CreateInt(3))
	sum := b.Reduce(s, b.CreateInt(0), func(b *genval.Builder, acc, v genval.Value) genval.Value {
		return b.CreateInt(acc.Int() + v.Int())
	})
	fmt.Println(sum.Int())
	// Output:
	// 6
}

func ExampleEvents() {
	b := genval.NewBuilder(genval.BuilderConfig{})
	defer b.Destroy()

	v := b.CreateMapping(b.CreateString("k"), b.CreateSequence(b.CreateInt(1)))
	for _, ev := range genval.Events(v, genval.IterConfig{Mode: genval.IterBody}) {
		fmt.Println(ev.String())
	}
	// Output:
	// +MAP
	// =VAL :k
	// +SEQ
	// =VAL :1
	// -SEQ
	// -MAP
}
