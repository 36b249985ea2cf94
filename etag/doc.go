/*
Package etag predicts the ETag Amazon S3 assigns to an object, from the object's
bytes and the multipart policy used to upload it.

Objects uploaded in a single request get the plain MD5 of their content. Objects
uploaded in N parts get the MD5 of the concatenated binary MD5s of the parts,
followed by "-N":

	policy := etag.Policy{Threshold: 8 << 20, ChunkSize: 8 << 20}
	v, err := etag.ComputeFile(ctx, "backup.tar", policy)
	fmt.Println(v) // 9b2cf535f27731c974343645a3985328-3

Streams of unknown length go through a Hasher instead:

	h, err := etag.NewHasher(policy)
	...
	io.Copy(h, os.Stdin)
	v, err := h.Sum()

Nothing here talks to S3. The result is only meaningful if the upload really
used the stated threshold and chunk size.
*/
package etag
