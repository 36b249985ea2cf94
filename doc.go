/*
s3etag computes the ETag Amazon S3 assigns to a file, without uploading it.

S3 gives objects uploaded in one request the MD5 of their content as ETag. Objects
uploaded in several parts get the MD5 of their parts' MD5s, followed by the part
count, so the same file ends up with different ETags depending on the multipart
threshold and chunk size of the client that uploaded it. Given those two
settings (8MB each by default, like the AWS CLI), s3etag predicts the ETag, which
can then be compared with the one S3 reports to check a local copy offline:

	$ s3etag --chunksize 16MB backup.tar notes.txt
	e8f7c2a1d0b9c8a7f6e5d4c3b2a19080-12     backup.tar
	5eb63bbbe01eeed093cb22bb8f5acdc3        notes.txt

The output can be saved and verified later with --check, the same way md5sum -c
works. Options can also come from a JSON config file (--cfgfile, written with
--save) and from S3ETAG_* environment variables. A FILE of - hashes standard
input, e.g. the output of a compression pipeline:

	$ tar c photos | s3etag -
*/
package main
