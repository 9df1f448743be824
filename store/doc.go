/*
Package store keeps a hierarchical result container in a single SQLite
file.

The container is organised like a file system: groups hold other
groups, datasets and mapping tables, and every node can carry named
attributes. Paths are slash separated and absolute ("/inc10/geometry/u_n").

Dataset payloads are written as byte-grouped little-endian float64
values, compressed with zstd or LZ4 when that pays off, and protected by
a BLAKE3 checksum that is verified on every read. Shapes, compound field
names, attributes and mapping tables are CBOR encoded.

A File wraps one SQLite connection and is meant to be short lived: open
it, do one logical read or write, close it. Every write is a single
IMMEDIATE transaction, so a concurrent reader never sees half a dataset.

	f, err := store.Create("result.db")
	if err != nil {
		return err
	}
	defer f.Close()
	err = f.WriteDataset("/inc0/constituent/Phase1/mechanics/F", &store.Dataset{
		Shape: []int{n, 3, 3},
		Data:  values,
	}, store.Attrs{"Unit": "1", "Description": "deformation gradient"})
*/
package store
