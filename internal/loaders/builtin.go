package loaders

// Built-in loader names.
const (
	HMSThriftLoader  = "HMSThriftMetastoreLoader"
	SqlAlchemyLoader = "SqlAlchemyMetastoreLoader"
	GlueLoader       = "GlueDataCatalogLoader"
)

const builtinLoaders = `[
  {
    "name": "HMSThriftMetastoreLoader",
    "template": {
      "field_type": "struct",
      "fields": {
        "hms_connection": {
          "field_type": "list",
          "of": {
            "field_type": "string",
            "description": "Put url to hive metastore server here",
            "required": true
          },
          "min": 1,
          "max": null
        },
        "load_partitions": {
          "field_type": "boolean",
          "helper": "Load partition names of every table on refresh"
        }
      }
    }
  },
  {
    "name": "SqlAlchemyMetastoreLoader",
    "template": {
      "field_type": "struct",
      "fields": {
        "connection_string": {
          "field_type": "string",
          "helper": "SQLAlchemy connection url, e.g. postgresql://user@host/db",
          "required": true
        },
        "connect_args": {
          "field_type": "list",
          "of": {
            "field_type": "struct",
            "fields": {
              "key": {"field_type": "string", "required": true},
              "value": {"field_type": "string", "required": true},
              "isJson": {"field_type": "boolean"}
            }
          },
          "min": null,
          "max": null
        }
      }
    }
  },
  {
    "name": "GlueDataCatalogLoader",
    "template": {
      "field_type": "struct",
      "fields": {
        "catalog_id": {
          "field_type": "string",
          "description": "AWS account id of the catalog",
          "required": true
        },
        "region": {"field_type": "string", "required": true},
        "aws_secret_key": {"field_type": "password", "hidden": true},
        "load_partitions": {"field_type": "boolean"}
      }
    }
  }
]`
